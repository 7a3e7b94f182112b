package command

import (
	"fmt"
	"strconv"
	"strings"

	"repost_bot/internal/model"
)

// Usage lines, also used as replies to malformed commands.
const (
	UsageAdd    = "Usage: add <id=interval,...> (Example: add -1001234=3600,-1005678=7200)"
	UsageUpdate = "Usage: update <id=interval,...> (Example: update -1001234=3600)"
	UsageDelete = "Usage: delete <id,...> (Example: delete -1001234,-1005678)"
	UsageSetAll = "Incorrect format! Format is: set_all <time_in_seconds> (Example: set_all 3600)"
)

// ParseError describes a malformed command. Its message is meant for the operator.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// Unwrap lets callers match model.ErrParse.
func (e *ParseError) Unwrap() error { return model.ErrParse }

var names = map[string]func(args string) (Command, error){
	"list-active":     noArgs(ListActive{}),
	"active-groups":   noArgs(ListActive{}),
	"list-candidates": noArgs(ListCandidates{}),
	"latest-groups":   noArgs(ListCandidates{}),
	"send":            noArgs(Send{}),
	"help":            noArgs(Help{}),
	"start":           noArgs(Help{}),
	"add":             parseAdd,
	"update":          parseUpdate,
	"delete":          parseDelete,
	"set-all":         parseSetAll,
}

// Parse converts operator text to a Command. Matching ignores case, an
// optional leading "/" or "@", a "@botname" suffix, and treats "_" and "-"
// alike, so "/set_all@bot 3600" and "set-all 3600" are the same command.
func Parse(text string) (Command, error) {
	s := strings.TrimSpace(strings.ToLower(text))
	s = strings.TrimLeft(s, "/@")

	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '_' || r == '-')
	})
	if end < 0 {
		end = len(s)
	}
	// "add-300=600": the dash belongs to the id.
	for end > 0 && (s[end-1] == '-' || s[end-1] == '_') {
		end--
	}
	word := strings.ReplaceAll(s[:end], "_", "-")
	args := s[end:]
	if strings.HasPrefix(args, "@") {
		// Bot API appends the bot username to commands in groups.
		if i := strings.IndexAny(args, " \t\n"); i >= 0 {
			args = args[i:]
		} else {
			args = ""
		}
	}

	parse, ok := names[word]
	if !ok {
		return nil, &ParseError{Msg: "Unknown command. Use help for a list of commands."}
	}
	return parse(strings.TrimSpace(args))
}

func noArgs(c Command) func(string) (Command, error) {
	return func(string) (Command, error) { return c, nil }
}

func parseAdd(args string) (Command, error) {
	entries, err := ParseEntries(args)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("%v\n%s", err, UsageAdd)}
	}
	return Add{Entries: entries}, nil
}

func parseUpdate(args string) (Command, error) {
	entries, err := ParseEntries(args)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("%v\n%s", err, UsageUpdate)}
	}
	return Update{Entries: entries}, nil
}

func parseDelete(args string) (Command, error) {
	ids, err := ParseIDs(args)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("%v\n%s", err, UsageDelete)}
	}
	return Delete{IDs: ids}, nil
}

func parseSetAll(args string) (Command, error) {
	return SetAll{Raw: args}, nil
}

// ParseEntries parses a comma-separated list of id=interval pairs.
// Whitespace is ignored anywhere in the list.
func ParseEntries(args string) ([]Entry, error) {
	parts := splitList(args)
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one id=interval pair is required")
	}
	entries := make([]Entry, 0, len(parts))
	for _, p := range parts {
		idStr, intervalStr, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q, expected id=interval", p)
		}
		id, err := parseID(idStr)
		if err != nil {
			return nil, err
		}
		interval, err := strconv.Atoi(intervalStr)
		if err != nil || !model.ValidInterval(interval) {
			return nil, fmt.Errorf("invalid interval %q for %d", intervalStr, id)
		}
		entries = append(entries, Entry{ID: id, Interval: interval})
	}
	return entries, nil
}

// ParseIDs parses a comma-separated list of chat ids.
func ParseIDs(args string) ([]int64, error) {
	parts := splitList(args)
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := parseID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid group id %q", s)
	}
	return id, nil
}

func splitList(args string) []string {
	compact := strings.Join(strings.Fields(args), "")
	var out []string
	for _, p := range strings.Split(compact, ",") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
