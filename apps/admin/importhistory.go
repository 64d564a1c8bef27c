package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// importHistory loads a legacy watch-history JSON export (an array of
// loosely-typed documents) and upserts the normalized events.
func (cli *commandLine) importHistory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading export file")
	}

	var docs []map[string]interface{}
	if err = json.Unmarshal(data, &docs); err != nil {
		return errors.Wrap(err, "parsing export file")
	}

	count, err := cli.watchSvc.ImportDocs(context.Background(), docs)
	if err != nil {
		return errors.Wrapf(err, "imported %d event(s) before failing", count)
	}
	logger.Printf("imported %d watch event(s)\n", count)
	return nil
}
