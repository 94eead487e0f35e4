package wolfram

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ExtractResult scans a query response for the first pod titled "Result" and
// returns the first non-empty plaintext inside it. A document without such a
// pod, or whose first Result pod holds no text, is not an error: found is false.
func ExtractResult(r io.Reader) (string, bool, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	// depth of the Result pod currently being read, 0 when outside one
	podDepth := 0
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := strings.ToLower(t.Name.Local)
			if podDepth == 0 && name == "pod" && attr(t, "title") == "Result" {
				podDepth = depth
				continue
			}
			if podDepth > 0 && name == "plaintext" {
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", false, err
				}
				depth--
				if text = strings.TrimSpace(text); text != "" {
					return text, true, nil
				}
			}
		case xml.EndElement:
			if podDepth > 0 && depth == podDepth {
				// only the first Result pod counts
				return "", false, nil
			}
			depth--
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}
