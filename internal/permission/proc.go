package permission

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// parseCapEff extracts the effective capability mask from the contents of
// /proc/<pid>/status.
func parseCapEff(status string) (uint64, error) {
	sc := bufio.NewScanner(strings.NewReader(status))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "CapEff:") {
			continue
		}
		v := strings.TrimSpace(strings.TrimPrefix(line, "CapEff:"))
		mask, err := strconv.ParseUint(v, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing CapEff %q: %w", v, err)
		}
		return mask, nil
	}
	return 0, fmt.Errorf("CapEff not found")
}

func hasCap(mask uint64, bit uint) bool {
	return mask&(1<<bit) != 0
}

// parseRelease returns the leading major number of a kernel release
// string such as "6.8.0-45-generic".
func parseRelease(release string) int {
	end := strings.IndexFunc(release, func(r rune) bool { return r < '0' || r > '9' })
	if end == 0 {
		return 0
	}
	if end < 0 {
		end = len(release)
	}
	n, err := strconv.Atoi(release[:end])
	if err != nil {
		return 0
	}
	return n
}
