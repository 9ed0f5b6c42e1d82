package sync

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseIDs expands post id arguments into ascending unique ids.
// Each argument is either a single id ("42") or an inclusive range ("10-20").
func ParseIDs(args []string) ([]int, error) {
	seen := make(map[int]bool)
	var ids []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		from, to, isRange := strings.Cut(arg, "-")
		if !isRange {
			id, err := parseID(arg)
			if err != nil {
				return nil, err
			}
			add(id)
			continue
		}

		lo, err := parseID(from)
		if err != nil {
			return nil, err
		}
		hi, err := parseID(to)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, fmt.Errorf("invalid range %q: start is after end", arg)
		}
		for id := lo; id <= hi; id++ {
			add(id)
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no post ids given")
	}
	sort.Ints(ids)
	return ids, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}
