// Command diaryctl runs the annotation engine over local files, for
// debugging stored entries and collaborator output.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
