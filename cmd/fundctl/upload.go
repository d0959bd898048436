package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/goliatone/go-fundboard/pkg/api"
)

type uploadCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Files to upload."`
}

func (c *uploadCmd) Run(rt *runtime) error {
	client, err := rt.Client()
	if err != nil {
		return err
	}
	files := make([]api.UploadFile, 0, len(c.Files))
	for _, path := range c.Files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("fundctl: open %s: %w", path, err)
		}
		defer f.Close()
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, api.UploadFile{Name: filepath.Base(path), ContentType: contentType, Body: f})
	}
	media, err := client.UploadFiles(rt.ctx, files)
	if err != nil {
		return err
	}
	return rt.print(media, func() table {
		t := table{columns: []string{"url", "mimetype"}}
		for _, m := range media {
			t.add(m.URL, m.MimeType)
		}
		return t
	})
}
