package logformat

import (
	"errors"
	"strings"

	"github.com/valyala/fastjson"
)

// lookupString walks path from root and reports whether a JSON string sits
// at its end. Missing intermediate nodes and non-object parents are not
// errors, they simply yield false. Array elements are never matched by
// index, every parent must be an object.
func lookupString(root *fastjson.Value, path ...string) (string, bool) {
	v := root
	for _, key := range path {
		if v == nil || v.Type() != fastjson.TypeObject {
			return "", false
		}
		v = v.Get(key)
	}
	if v == nil || v.Type() != fastjson.TypeString {
		return "", false
	}
	b, err := v.StringBytes()
	if err != nil {
		return "", false
	}
	return string(b), true
}

// parseResourceID extracts the subscription id and the trailing resource
// name from an Azure resource id such as
// /subscriptions/{sub}/resourceGroups/{rg}/providers/{ns}/{type}/{name}.
func parseResourceID(id string) (subscription, resourceName string, err error) {
	segments := strings.Split(strings.Trim(id, "/"), "/")

	idx := -1
	for i, s := range segments {
		if strings.EqualFold(s, "subscriptions") {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(segments) || segments[idx+1] == "" {
		return "", "", errors.New("resource id has no subscription segment")
	}
	if idx+2 >= len(segments) || segments[len(segments)-1] == "" {
		return "", "", errors.New("resource id has no resource name segment")
	}

	return segments[idx+1], segments[len(segments)-1], nil
}
