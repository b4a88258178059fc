package models

// aspectRatioSizes maps poster aspect-ratio names to provider pixel sizes.
var aspectRatioSizes = map[string]string{
	"1:1":  "1024x1024",
	"3:4":  "768x1024",
	"4:3":  "1024x768",
	"9:16": "576x1024",
	"16:9": "1024x576",
}

// SizeForAspectRatio returns the provider size string for an aspect-ratio
// name, defaulting to square when the name is unknown.
func SizeForAspectRatio(name string) string {
	if size, ok := aspectRatioSizes[name]; ok {
		return size
	}
	return aspectRatioSizes["1:1"]
}
