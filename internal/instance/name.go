package instance

import (
	"fmt"
	"regexp"
	"strconv"
)

// Separator splits an app id from its instance number in instance names.
const Separator = "__"

// instanceNamePattern captures the app id and the optional instance number
// suffix. The app id match is lazy so a trailing __N suffix is claimed by the
// number group; a suffix that is not a positive integer without leading zero
// folds back into the app id.
var instanceNamePattern = regexp.MustCompile(`^([\w-]+?)(__([1-9][0-9]*))?$`)

// ParseName splits an instance name into its app id and instance number.
//
// The function is total: every input yields a result. Names without a valid
// numeric suffix (including names like "yolo__23qdqsd" or "yolo__0") are
// returned whole with instance number 1.
func ParseName(name string) (appID string, number int) {
	m := instanceNamePattern.FindStringSubmatch(name)
	if m == nil {
		return name, 1
	}
	if m[3] == "" {
		return m[1], 1
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return name, 1
	}
	return m[1], n
}

// NameFor is the inverse of ParseName: the first instance keeps the bare app
// id, later instances get the numeric suffix.
func NameFor(appID string, number int) string {
	if number <= 1 {
		return appID
	}
	return fmt.Sprintf("%s%s%d", appID, Separator, number)
}

// NextNumber computes the instance number a new installation of appID would
// receive, given the existing instance names.
//
// It returns 1 when no instance claims the bare app id. Otherwise it returns
// one more than the highest instance number among entries whose app id
// matches. Whether a number above 1 is permitted (multi_instance) is the
// state machine's decision, not this function's.
func NextNumber(appID string, existing []string) int {
	bare := false
	max := 0
	for _, name := range existing {
		id, n := ParseName(name)
		if id != appID {
			continue
		}
		if name == appID {
			bare = true
		}
		if n > max {
			max = n
		}
	}
	if !bare {
		return 1
	}
	return max + 1
}
