package main

import (
	"os"
	"strings"

	"dequeue/internal/cli"
)

// lookupCommand maps an entity-id prefix to the show command for it.
func lookupCommand(s string) []string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "arc-") && len(s) > len("arc-"):
		return []string{"arcs", "show"}
	case strings.HasPrefix(s, "stk-") && len(s) > len("stk-"):
		return []string{"stacks", "show"}
	case strings.HasPrefix(s, "tsk-") && len(s) > len("tsk-"):
		return []string{"tasks", "show"}
	default:
		return nil
	}
}

// rewriteDirectLookupArgs makes `dequeue <entity-id>` work like the matching
// show command. Cobra treats the first non-flag token as a subcommand, so
// argv is rewritten before parsing. Persistent flags may come first
// (`dequeue --dir ... tsk-abc`), so the first positional token is what
// matters, not argv[1].
func rewriteDirectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":    true,
		"--actor":  true,
		"--device": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insert := func(i int) []string {
		sub := lookupCommand(argv[i])
		if sub == nil {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, sub...)
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
				continue
			}
			continue
		}
		return insert(i)
	}
	return argv
}

func main() {
	os.Args = rewriteDirectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
