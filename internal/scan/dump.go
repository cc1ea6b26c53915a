package scan

import (
	"bufio"
	"fmt"
	"io"

	"github2file/internal/artifact"
)

const noReadme = "No README file found in the repository."

// WriteText dumps files as one text document, README first. With claude set the
// files are wrapped in <documents>/<document index="N"> tags.
func WriteText(w io.Writer, files []artifact.FileRecord, claude bool) error {
	bw := bufio.NewWriter(w)
	var readme artifact.FileRecord
	rest := files
	if len(files) > 0 && isReadme(files[0].Path) {
		readme, rest = files[0], files[1:]
	} else {
		readme = artifact.FileRecord{Content: []byte(noReadme), Language: "md"}
	}

	if claude {
		fmt.Fprint(bw, "Here are some documents for you to reference for your task:\n\n<documents>\n")
		writeDocument(bw, 0, readme)
		index := 1
		for _, f := range rest {
			if f.Binary {
				continue
			}
			writeDocument(bw, index, f)
			index++
		}
		fmt.Fprint(bw, "</documents>")
		return bw.Flush()
	}

	writePlain(bw, readme)
	for _, f := range rest {
		if f.Binary {
			continue
		}
		writePlain(bw, f)
	}
	return bw.Flush()
}

func writeDocument(w io.Writer, index int, f artifact.FileRecord) {
	fmt.Fprintf(w, "<document index=\"%d\">\n<source>%s</source>\n<document_content>\n%s\n</document_content>\n</document>\n\n",
		index, f.Path, f.Content)
}

func writePlain(w io.Writer, f artifact.FileRecord) {
	marker := "# "
	if cLike(f.Language) {
		marker = "// "
	}
	fmt.Fprintf(w, "%sFile: %s\n%s\n\n", marker, f.Path, f.Content)
}
