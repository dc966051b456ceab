package notation

import "strings"

// Preset is the parse result of multi-line preset text. Groups preserves the
// note order within each group; Order preserves the textual order of the
// group lines themselves so players can sequence the whole preset.
type Preset struct {
	Order  []string
	Groups map[string][]Note
}

// Notes returns every note in the preset, flattened in textual order.
func (p *Preset) Notes() []Note {
	if p == nil {
		return nil
	}
	out := make([]Note, 0, len(p.Order)*4)
	for _, name := range p.Order {
		out = append(out, p.Groups[name]...)
	}
	return out
}

// Parser turns preset text into Notes under a fixed Config.
type Parser struct {
	cfg Config
}

func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// ParseToken parses a single voice-spec token into a Note. The second return
// value is false for unparseable tokens.
func (p *Parser) ParseToken(spec string) (Note, bool) {
	tok, ok := ParseVoiceSpec(spec)
	if !ok {
		return Note{}, false
	}
	return BuildNote(tok, p.cfg), true
}

// ParsePreset splits input into "name: spec + spec + ..." lines. Tokens that
// fail to parse are dropped, groups with no surviving notes are omitted, and
// lines that do not match the group grammar are ignored.
func (p *Parser) ParsePreset(text string) *Preset {
	preset := &Preset{Groups: make(map[string][]Note)}
	for _, line := range strings.Split(text, "\n") {
		name, body, ok := splitGroupLine(line)
		if !ok {
			continue
		}
		var notes []Note
		for _, spec := range strings.Split(body, "+") {
			spec = strings.TrimSpace(spec)
			if spec == "" {
				continue
			}
			n, ok := p.ParseToken(spec)
			if !ok {
				continue
			}
			n.Group = name
			n.Section = strings.ToUpper(name[:1])
			notes = append(notes, n)
		}
		if len(notes) == 0 {
			continue
		}
		if _, seen := preset.Groups[name]; !seen {
			preset.Order = append(preset.Order, name)
		}
		preset.Groups[name] = append(preset.Groups[name], notes...)
	}
	return preset
}

func splitGroupLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	name := line[:idx]
	if !isWord(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(line[idx+1:]), true
}

func isWord(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		case b == '_':
		default:
			return false
		}
	}
	return s != ""
}
