package extract

import "sort"

// Locator translates byte offsets in a joined document text back to 1-based
// page and line-within-page coordinates. Pages are separated by form feeds,
// lines by newlines.
type Locator struct {
	starts []lineStart
}

type lineStart struct {
	offset int
	page   int
	line   int
}

func NewLocator(text string) *Locator {
	l := &Locator{}
	page, line := 1, 1
	l.starts = append(l.starts, lineStart{0, page, line})
	for i, b := range []byte(text) {
		switch b {
		case '\f':
			page++
			line = 0 // the next newline-less char starts line 1
			fallthrough
		case '\n':
			line++
			l.starts = append(l.starts, lineStart{i + 1, page, line})
		}
	}
	return l
}

// Locate returns the page and line containing the byte offset.
func (l *Locator) Locate(offset int) (page, line int) {
	i := sort.Search(len(l.starts), func(i int) bool {
		return l.starts[i].offset > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return l.starts[i].page, l.starts[i].line
}
