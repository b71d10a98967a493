package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rickgao/shoplog/internal/model"
)

// Line prefixes recognised inside a shop information block.
const (
	ownerPrefix  = "Owner:"
	stockPrefix  = "Stock:"
	itemPrefix   = "Item:"
	buyPrefix    = "Buy"
	sellPrefix   = "Sell"
	repairPrefix = "Repair Cost:"
)

var (
	buyPattern  = regexp.MustCompile(`Buy (\d+) for (\d+) Coins`)
	sellPattern = regexp.MustCompile(`Sell (\d+) for (\d+) Coins`)

	// enchantPattern matches one or two words followed by a roman numeral,
	// e.g. "Fire Aspect II". Any other line of that shape is taken as an
	// enchantment too.
	enchantPattern = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)? [IVXLCDM]+$`)
)

// state is either idle or *building.
type state interface {
	isState()
}

// idle means no record is under construction.
type idle struct{}

// building holds the record being accumulated.
type building struct {
	rec model.ShopRecord
}

func (idle) isState()      {}
func (*building) isState() {}

// Parser converts cleaned log lines into shop records.
// A Parser is not safe for concurrent use.
type Parser struct {
	st      state
	records []model.ShopRecord
	orphans []string
}

// NewParser returns a parser in the idle state.
func NewParser() *Parser {
	return &Parser{st: idle{}}
}

// Feed advances the state machine by one line.
func (p *Parser) Feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, headerPrefix) {
		return
	}

	if strings.HasPrefix(line, ownerPrefix) {
		p.emit()
		p.st = &building{rec: newRecord(afterColon(line))}
		return
	}

	switch st := p.st.(type) {
	case idle:
		if isFieldLine(line) {
			p.orphans = append(p.orphans, line)
		}
	case *building:
		st.apply(line)
	}
}

// Finish emits any record still under construction and returns every
// record in encounter order. The parser is reset to idle.
func (p *Parser) Finish() []model.ShopRecord {
	p.emit()
	records := p.records
	p.records = nil
	return records
}

// Orphans returns field lines that arrived while no record was open.
func (p *Parser) Orphans() []string {
	return p.orphans
}

func (p *Parser) emit() {
	if b, ok := p.st.(*building); ok {
		p.records = append(p.records, b.rec)
	}
	p.st = idle{}
}

func (b *building) apply(line string) {
	switch {
	case strings.HasPrefix(line, stockPrefix):
		b.rec.Stock = parseInt(afterColon(line))
	case strings.HasPrefix(line, itemPrefix):
		b.rec.Item = strings.NewReplacer("[", "", "]", "").Replace(afterColon(line))
	case strings.HasPrefix(line, buyPrefix):
		if price, ok := matchPrice(buyPattern, line); ok {
			b.rec.Buy = price
		}
	case strings.HasPrefix(line, sellPrefix):
		if price, ok := matchPrice(sellPattern, line); ok {
			b.rec.Sell = &price
		}
	case strings.HasPrefix(line, repairPrefix):
		cost := parseInt(afterColon(line))
		b.rec.RepairCost = &cost
	case enchantPattern.MatchString(line):
		b.rec.Enchants = append(b.rec.Enchants, line)
	}
}

func newRecord(owner string) model.ShopRecord {
	return model.ShopRecord{
		Owner: owner,
		Stock: model.Int(0),
		Buy:   model.Price{Quantity: model.Int(0), Value: model.Int(0)},
	}
}

func isFieldLine(line string) bool {
	for _, prefix := range []string{stockPrefix, itemPrefix, buyPrefix, sellPrefix, repairPrefix} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// afterColon returns the trimmed text after the first colon.
func afterColon(line string) string {
	_, after, _ := strings.Cut(line, ":")
	return strings.TrimSpace(after)
}

func matchPrice(pattern *regexp.Regexp, line string) (model.Price, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return model.Price{}, false
	}
	return model.Price{Quantity: parseInt(m[1]), Value: parseInt(m[2])}, true
}

// parseInt reads an optional sign and the leading decimal digits of s,
// ignoring whatever follows. No digits, or a value out of int64 range,
// gives an invalid Amount.
func parseInt(s string) model.Amount {
	s = strings.TrimSpace(s)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return model.NaN()
	}

	n, err := strconv.ParseInt(s[:j], 10, 64)
	if err != nil {
		return model.NaN()
	}
	return model.Int(n)
}

// ParseLines runs a fresh parser over cleaned lines.
func ParseLines(lines []string) []model.ShopRecord {
	p := NewParser()
	for _, line := range lines {
		p.Feed(line)
	}
	return p.Finish()
}

// Result is the outcome of parsing one log.
type Result struct {
	Records []model.ShopRecord
	Orphans []string
}

// ParseLog splits, prepares and parses raw log text.
func ParseLog(text, marker string) Result {
	p := NewParser()
	for _, line := range Prepare(SplitLines(text), marker) {
		p.Feed(line)
	}
	records := p.Finish()
	return Result{Records: records, Orphans: p.Orphans()}
}
