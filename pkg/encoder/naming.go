package encoder

import (
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// naming regexp
var (
	reDate = regexp.MustCompile(`%date:(.*?)%`)
	reTag  = regexp.MustCompile(`%tag%`)
	reRand = regexp.MustCompile(`%rand:(\d+)%`)
)

// ParseName expands the output naming pattern. Supported
// placeholders: %date:go_time_format%, %tag%, %rand:len%.
func ParseName(name, tag string) (out string) {
	if d := reDate.FindStringSubmatch(name); d != nil {
		out = reDate.ReplaceAllString(name, time.Now().Format(d[1]))
	} else {
		out = name
	}
	if rnd := reRand.FindStringSubmatch(out); rnd != nil {
		out = reRand.ReplaceAllString(out, random(rnd[1]))
	}
	out = reTag.ReplaceAllString(out, tag)
	return
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func random(num string) string {
	n, err := strconv.Atoi(num)
	if err != nil {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Int63()%int64(len(letterBytes))]
	}
	return string(b)
}
