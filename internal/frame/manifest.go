package frame

import "strings"

const (
	// ManifestPath is the well-known location hosts fetch the manifest from.
	ManifestPath = "/.well-known/farcaster.json"
	// WebhookPath receives host lifecycle notifications.
	WebhookPath = "/api/webhook"

	DefaultTitle           = "PixelPursuit Adventure"
	DefaultButtonTitle     = "Launch Frame"
	DefaultSplashColor     = "#f7f7f7"
	ManifestVersion        = "1"
	defaultImagePath       = "/frames/hello/opengraph-image"
	defaultIconPath        = "/icon.png"
	defaultSplashImagePath = "/splash.png"
)

// AccountAssociation is the signed domain ownership proof (a JSON Farcaster
// Signature) issued for the deployment domain.
type AccountAssociation struct {
	Header    string `json:"header" jsonschema:"description=base64url JFS header carrying fid and custody key"`
	Payload   string `json:"payload" jsonschema:"description=base64url JFS payload carrying the domain"`
	Signature string `json:"signature" jsonschema:"description=base64url signature over header.payload"`
}

// Descriptor describes how the host presents and launches the frame.
type Descriptor struct {
	Version               string `json:"version" jsonschema:"enum=1"`
	Name                  string `json:"name" jsonschema:"minLength=1"`
	IconURL               string `json:"iconUrl" jsonschema:"format=uri"`
	HomeURL               string `json:"homeUrl" jsonschema:"format=uri"`
	ImageURL              string `json:"imageUrl" jsonschema:"format=uri"`
	ButtonTitle           string `json:"buttonTitle"`
	SplashImageURL        string `json:"splashImageUrl" jsonschema:"format=uri"`
	SplashBackgroundColor string `json:"splashBackgroundColor" jsonschema:"pattern=^#[0-9a-fA-F]{6}$"`
	WebhookURL            string `json:"webhookUrl" jsonschema:"format=uri"`
}

// Manifest is the document served at ManifestPath.
type Manifest struct {
	AccountAssociation AccountAssociation `json:"accountAssociation"`
	Frame              Descriptor         `json:"frame"`
}

// DefaultAccountAssociation is the signed association for the production
// deployment domain. Other domains override it through configuration.
var DefaultAccountAssociation = AccountAssociation{
	Header:    "eyJmaWQiOiA4ODcyNDYsICJ0eXBlIjogImN1c3RvZHkiLCAia2V5IjogIjB4N0Q0MDBGRDFGNTkyYkI0RkNkNmEzNjNCZkQyMDBBNDNEMTY3MDRlNyJ9",
	Payload:   "eyJkb21haW4iOiAiZWJlZXp5ZXRoLXBpeGVscHVyc3VpdC1hZHZlbnR1cmUudmVyY2VsLmFwcCJ9",
	Signature: "MHhmZjg3YTIxODg5NTE0OTRhYzgzNDJjYTdkMzhlYjJkNGM1Zjg5ODdiOWRiMDBjNDE0YmNjN2RkYWExMzE1ZGFjM2IxYTg3YmEyM2U1MGFjNWUzMmQzMmEzNWExNWQyMjJlNjc2MTczNGQ3ZTViMzQ4N2VjNzFiMjViZGQ3ZWI3MzFi",
}

// ManifestConfig holds the deployment-specific manifest inputs.
type ManifestConfig struct {
	BaseURL            string
	Title              string
	AccountAssociation AccountAssociation
}

// BuildManifest derives every asset URL from the base URL.
func BuildManifest(cfg ManifestConfig) Manifest {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = DefaultTitle
	}
	return Manifest{
		AccountAssociation: cfg.AccountAssociation,
		Frame: Descriptor{
			Version:               ManifestVersion,
			Name:                  title,
			IconURL:               base + defaultIconPath,
			HomeURL:               base,
			ImageURL:              base + defaultImagePath,
			ButtonTitle:           DefaultButtonTitle,
			SplashImageURL:        base + defaultSplashImagePath,
			SplashBackgroundColor: DefaultSplashColor,
			WebhookURL:            base + WebhookPath,
		},
	}
}

// ResolveBaseURL prefers the explicit public URL and falls back to the
// production host name over https.
func ResolveBaseURL(publicURL, productionHost string) string {
	if publicURL = strings.TrimSpace(publicURL); publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	return "https://" + strings.TrimRight(strings.TrimSpace(productionHost), "/")
}
