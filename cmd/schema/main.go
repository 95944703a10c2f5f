package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/invopop/jsonschema"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/net/proto"
)

type document struct {
	title       string
	description string
	value       any
}

var documents = map[string]document{
	"manifest": {
		title:       "Pixel Pursuit Frame Manifest",
		description: "Served at " + frame.ManifestPath,
		value:       new(frame.Manifest),
	},
	"client-message": {
		title:       "Pixel Pursuit Client Message",
		description: "Messages sent by the web client over /ws",
		value:       new(proto.ClientMessage),
	},
	"session": {
		title:       "Pixel Pursuit Session Message",
		description: "First message sent after the websocket is accepted",
		value:       new(proto.SessionV1),
	},
	"state": {
		title:       "Pixel Pursuit State Message",
		description: "Board snapshot sent after every change",
		value:       new(proto.StateV1),
	},
	"frame-status": {
		title:       "Pixel Pursuit Frame Status Message",
		description: "Add-frame outcome shown to the user",
		value:       new(proto.FrameStatusV1),
	},
	"heartbeat": {
		title:       "Pixel Pursuit Heartbeat Message",
		description: "Answer to a client heartbeat",
		value:       new(proto.HeartbeatV1),
	},
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas into")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for _, name := range documentNames() {
		path := filepath.Join(outDir, name+".schema.json")
		if err := writeSchema(path, buildSchema(documents[name])); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write schema %s: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func documentNames() []string {
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildSchema(doc document) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(doc.value)
	schema.Title = doc.title
	schema.Description = doc.description
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
