package main

import (
	"encoding/json"
	"fmt"
	"os"

	"wasp/internal/config"
)

// writeDefaultConfig drops the commented default config file into the
// data directory, leaving an existing file alone.
func writeDefaultConfig() (string, error) {
	return config.WriteDefault(cfg.DataDir)
}

// emit prints the command result: one newline-terminated JSON document
// in --json mode, human text otherwise.
func emit(v interface{}, human func()) {
	if jsonOut {
		out, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}
	human()
}

// failOut reports an error: {"error": ...} in JSON mode, a single line
// on stderr otherwise.
func failOut(err error) {
	if jsonOut {
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Println(string(out))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
