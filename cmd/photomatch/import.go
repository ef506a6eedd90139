package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/circleapp/photomatch/internal/match"
	"github.com/circleapp/photomatch/internal/media"
)

// importFile is the JSON seed format: a memories list and a media list,
// mirroring the album app's export.
type importFile struct {
	Memories []importMemory `json:"memories"`
	Media    []importMedia  `json:"media"`
}

type importMemory struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	DateText string   `json:"date"`
	Year     *int     `json:"year"`
	People   []string `json:"people"`
}

type importMedia struct {
	Filename    string   `json:"filename"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Year        *int     `json:"year"`
	People      []string `json:"people"`
	FileType    string   `json:"file_type"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Seed the library from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}

		var file importFile
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse import file: %w", err)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		imported := 0
		for _, m := range file.Memories {
			mem := match.Memory{
				Text:        m.Text,
				Category:    m.Category,
				DateText:    m.DateText,
				Year:        m.Year,
				PersonNames: m.People,
			}
			if err := a.library.CreateMemory(&mem); err != nil {
				a.logger.Warn("skipping memory", zap.Error(err))
				continue
			}
			imported++
		}

		for _, m := range file.Media {
			raw := media.RawMedia{
				Filename:    m.Filename,
				Title:       m.Title,
				Description: m.Description,
				TaggedYear:  m.Year,
				People:      m.People,
				FileType:    media.FileType(m.FileType),
			}
			if err := a.library.CreateMedia(&raw); err != nil {
				a.logger.Warn("skipping media record", zap.Error(err))
				continue
			}
			imported++
		}

		fmt.Printf("imported %d records into %s\n", imported, a.cfg.DBPath)
		return nil
	},
}
