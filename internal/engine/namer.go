package engine

import (
	"fmt"
	"strings"

	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/label"
	"github.com/swaywsr/swaywsr/internal/tree"
	"github.com/swaywsr/swaywsr/internal/util"
)

// collectTitles derives the display string of every window on the workspace.
// Windows whose title cannot be resolved are logged and skipped; they never
// abort the workspace.
func collectTitles(ws *tree.Node, cfg *config.Config, compiled *label.Compiled, logger *util.Logger) []string {
	props := ws.CollectWindowProperties()
	titles := make([]string, 0, len(props))
	for _, p := range props {
		title, err := compiled.Title(p, cfg)
		if err != nil {
			logger.Warnf("skipping window on workspace %s: %v", workspaceName(ws), err)
			continue
		}
		titles = append(titles, title)
	}
	return titles
}

// processTitles applies the post-processing options. Deduplication runs
// before empty filtering so duplicate empty strings collapse first.
func processTitles(titles []string, opts config.Options) []string {
	if opts.RemoveDuplicates {
		seen := make(map[string]struct{}, len(titles))
		deduped := make([]string, 0, len(titles))
		for _, t := range titles {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			deduped = append(deduped, t)
		}
		titles = deduped
	}
	if opts.NoNames {
		filtered := make([]string, 0, len(titles))
		for _, t := range titles {
			if t != "" {
				filtered = append(filtered, t)
			}
		}
		titles = filtered
	}
	return titles
}

// formatWorkspaceName rebuilds the workspace name from the preserved prefix
// and the joined titles. The titles string already carries its leading space;
// a colon split character was consumed by the prefix split and has to be put
// back, any other split character is assumed cosmetic.
func formatWorkspaceName(initial, titles string, splitAt rune, general config.General) string {
	var b strings.Builder
	b.WriteString(initial)
	if splitAt == ':' && initial != "" && titles != "" {
		b.WriteByte(':')
	}
	if titles != "" {
		b.WriteString(titles)
	} else if general.EmptyLabel != "" {
		b.WriteByte(' ')
		b.WriteString(general.EmptyLabel)
	}
	return b.String()
}

// newName computes the full replacement name for a workspace. The only
// unrecoverable condition is a workspace without a name, since the name is
// the rename command's key.
func newName(ws *tree.Node, cfg *config.Config, compiled *label.Compiled, logger *util.Logger) (string, error) {
	if ws.Name == nil {
		return "", fmt.Errorf("workspace node %d has no name", ws.ID)
	}
	titles := processTitles(collectTitles(ws, cfg, compiled, logger), cfg.Options)
	joined := ""
	if len(titles) > 0 {
		joined = " " + strings.Join(titles, cfg.General.Separator)
	}
	splitAt := cfg.General.SplitChar()
	initial, _, _ := strings.Cut(*ws.Name, string(splitAt))
	return formatWorkspaceName(initial, joined, splitAt, cfg.General), nil
}

func workspaceName(ws *tree.Node) string {
	if ws.Name == nil {
		return fmt.Sprintf("<unnamed node %d>", ws.ID)
	}
	return *ws.Name
}
