package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/ras/config"
	"github.com/grovetools/ras/pkg/vcs"
)

func main() {
	outputs := []struct {
		name     string
		generate func() ([]byte, error)
	}{
		{"ras.schema.json", config.GenerateSchema},
		{"manifest.schema.json", vcs.GenerateManifestSchema},
	}

	outputDir := "schema"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	for _, out := range outputs {
		data, err := out.generate()
		if err != nil {
			log.Fatalf("Error generating %s: %v", out.name, err)
		}
		outputPath := filepath.Join(outputDir, out.name)
		if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Generated %s", outputPath)
	}
}
