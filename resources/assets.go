package resources

import (
	"embed"
	"fmt"
	"sync"
)

const cueDir = "cues/"

//go:embed cues/*.wav
var cueFS embed.FS

var cueCache sync.Map

// Cue returns the raw WAV bytes for the given cue file.
func Cue(fileName string) ([]byte, error) {
	path := cueDir + fileName
	if cached, ok := cueCache.Load(path); ok {
		return cached.([]byte), nil
	}

	data, err := cueFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load cue %s: %w", path, err)
	}

	cueCache.Store(path, data)
	return data, nil
}
