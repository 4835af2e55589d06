package telegram

import (
	"strconv"
	"strings"
)

// ParsePlanArgs splits "/plan [minutes] <ingredients>" arguments. minutes is 0
// when the first word is not a number.
func ParsePlanArgs(args string) (minutes int, ingredients string) {
	args = strings.TrimSpace(args)
	first, rest, _ := strings.Cut(args, " ")
	first = strings.TrimSuffix(strings.TrimSuffix(first, "min"), "m")
	if n, err := strconv.Atoi(first); err == nil && n > 0 {
		return n, strings.TrimSpace(rest)
	}
	return 0, args
}

// ParseTextArgs splits a plain chat message. Unlike command arguments the first
// word is a time limit only when it carries a "min" or "m" suffix, so
// "2 eggs, milk" stays an ingredient list.
func ParseTextArgs(text string) (minutes int, ingredients string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, " ")
	number, ok := strings.CutSuffix(first, "min")
	if !ok {
		number, ok = strings.CutSuffix(first, "m")
	}
	if !ok {
		return 0, text
	}
	if n, err := strconv.Atoi(number); err == nil && n > 0 {
		return n, strings.TrimSpace(rest)
	}
	return 0, text
}
