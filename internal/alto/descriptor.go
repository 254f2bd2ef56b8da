// Package alto maintains ALTO v4 page descriptors: it rewrites the image
// file names they reference, both inside archives and on disk.
package alto

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the ALTO v4 XML namespace.
const Namespace = "http://www.loc.gov/standards/alto/ns-v4#"

const declaration = `version="1.0" encoding="UTF-8"`

// Descriptor is a parsed ALTO document.
type Descriptor struct {
	path string
	doc  *etree.Document
}

// Open parses the descriptor at path.
func Open(path string) (*Descriptor, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %s: no root element", ErrParse, path)
	}
	return &Descriptor{path: path, doc: doc}, nil
}

// SourceFileName returns the sourceImageInformation/fileName element.
func (d *Descriptor) SourceFileName() *etree.Element {
	for _, el := range d.doc.FindElements("//sourceImageInformation/fileName") {
		if el.NamespaceURI() == Namespace {
			return el
		}
	}
	return nil
}

// FileNames returns every ALTO fileName element in document order.
func (d *Descriptor) FileNames() []*etree.Element {
	var out []*etree.Element
	for _, el := range d.doc.FindElements("//fileName") {
		if el.NamespaceURI() == Namespace {
			out = append(out, el)
		}
	}
	return out
}

// Save writes the descriptor back to its file, with an XML declaration.
func (d *Descriptor) Save() error {
	if !hasDeclaration(d.doc) {
		pi := d.doc.CreateProcInst("xml", declaration)
		d.doc.RemoveChildAt(pi.Index())
		d.doc.InsertChildAt(0, pi)
	}
	if err := d.doc.WriteToFile(d.path); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}

// CleanFileName rewrites the descriptor's source image file name to its base
// name, dropping any directory written by the producing tool.
func CleanFileName(path string) error {
	d, err := Open(path)
	if err != nil {
		return err
	}

	el := d.SourceFileName()
	if el == nil {
		return fmt.Errorf("%w: %s", ErrFileNameMissing, path)
	}

	el.SetText(baseName(el.Text()))
	return d.Save()
}

func hasDeclaration(doc *etree.Document) bool {
	for _, t := range doc.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			return true
		}
	}
	return false
}

// baseName accepts both separators; descriptors are often produced on Windows.
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
