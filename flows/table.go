package flows

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadTable reads a scenario table from a CSV file. Each line holds the key
// fields followed by the fragment value:
//
//	selector,dataEntry,htmlDataEntry,oobContinue,exceedsThreshold,fragment
//
// Key fields may be the wildcard "*". A missing file yields an empty table;
// the resolver's default heuristic still covers every input.
func LoadTable(path string) (map[string]Fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("flow table not found, using default heuristics only")
			return map[string]Fragment{}, nil
		}
		return nil, errors.Wrapf(err, "failed to open flow table %q", path)
	}
	defer file.Close()

	return ParseTable(file)
}

// ParseTable reads scenario lines from r. Unparseable fragment values are
// skipped with a warning rather than failing startup.
func ParseTable(r io.Reader) (map[string]Fragment, error) {
	table := make(map[string]Fragment)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		index := strings.LastIndex(line, ",")
		if index <= 0 {
			log.Warn().Str("line", line).Msg("skipping flow table line without a value")
			continue
		}

		key := strings.ToLower(strings.ReplaceAll(line[:index], ",", "_"))
		fragment, ok := ParseFragment(line[index+1:])
		if !ok {
			log.Warn().Str("line", line).Msg("skipping flow table line with unknown fragment")
			continue
		}
		table[key] = fragment
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read flow table")
	}
	return table, nil
}
