package command

import (
	"strconv"
	"strings"
)

// Kind classifies a tokenized command line.
type Kind int

const (
	Unknown Kind = iota
	RecordOn
	RecordOff
	ConfigureNext
)

// String returns the metric label for the kind.
func (k Kind) String() string {
	switch k {
	case RecordOn:
		return "record_on"
	case RecordOff:
		return "record_off"
	case ConfigureNext:
		return "configure_next"
	default:
		return "unknown"
	}
}

const verb = "record"

// Exact field counts per kind, verb included.
const (
	arityOn  = 5
	arityOff = 2
	aritySet = 7
)

// Command is one parsed control line. Experiment, Source, and Scan are set
// for RecordOn and ConfigureNext; Start and Duration only for ConfigureNext.
type Command struct {
	Raw    string
	Fields []string
	Kind   Kind

	Experiment string
	Source     string
	Scan       string
	Start      int64
	Duration   int64
}

// End returns the epoch second at which a ConfigureNext window closes.
func (c Command) End() int64 {
	return c.Start + c.Duration
}

// Tokenize splits raw into its ordered field list. The '=' pass drops empty
// parts and must yield exactly two; the right-hand side is split on ':' with
// empty fields preserved and the verb reinserted as field zero. Malformed
// input yields an empty list.
func Tokenize(raw string) []string {
	var head []string
	for _, p := range strings.Split(raw, "=") {
		if p != "" {
			head = append(head, p)
		}
	}
	if len(head) != 2 {
		return nil
	}

	fields := strings.Split(head[1], ":")
	out := make([]string, 0, len(fields)+1)
	out = append(out, head[0])
	return append(out, fields...)
}

// Classify maps a field list to its command kind by verb, subcommand, and
// exact arity.
func Classify(fields []string) Kind {
	if len(fields) < 2 || fields[0] != verb {
		return Unknown
	}
	switch {
	case fields[1] == "on" && len(fields) == arityOn:
		return RecordOn
	case fields[1] == "off" && len(fields) == arityOff:
		return RecordOff
	case fields[1] == "set" && len(fields) == aritySet:
		return ConfigureNext
	default:
		return Unknown
	}
}

// Parse tokenizes and classifies raw, extracting the naming and timing
// fields its kind carries. A ConfigureNext whose start or duration does not
// parse as a positive integer degrades to Unknown.
func Parse(raw string) Command {
	cmd := Command{Raw: raw, Fields: Tokenize(raw)}
	cmd.Kind = Classify(cmd.Fields)

	switch cmd.Kind {
	case RecordOn:
		cmd.Experiment = cmd.Fields[2]
		cmd.Source = cmd.Fields[3]
		cmd.Scan = cmd.Fields[4]
	case ConfigureNext:
		cmd.Experiment = cmd.Fields[2]
		cmd.Source = cmd.Fields[3]
		cmd.Scan = cmd.Fields[4]
		start, err := strconv.ParseInt(cmd.Fields[5], 10, 64)
		if err != nil || start < 0 {
			cmd.Kind = Unknown
			return cmd
		}
		dur, err := strconv.ParseInt(cmd.Fields[6], 10, 64)
		if err != nil || dur <= 0 {
			cmd.Kind = Unknown
			return cmd
		}
		cmd.Start = start
		cmd.Duration = dur
	}
	return cmd
}
