package novelpub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// containerXML is META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	Version   string     `xml:"version,attr,omitempty"`
	Xmlns     string     `xml:"xmlns,attr,omitempty"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

const (
	containerPath = "META-INF/container.xml"
	opfMediaType  = "application/oebps-package+xml"
)

// buildContainerXML renders container.xml pointing at opfPath.
func buildContainerXML(opfPath string) ([]byte, error) {
	c := containerXML{
		Version: "1.0",
		Xmlns:   "urn:oasis:names:tc:opendocument:xmlns:container",
		RootFiles: []rootFile{
			{FullPath: opfPath, MediaType: opfMediaType},
		},
	}
	data, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("novelpub: encode container.xml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// parseContainer returns the OPF path named by container.xml. Archives
// without container.xml fall back to their first ".opf" entry.
func parseContainer(zr *zip.Reader) (string, error) {
	f := findFileInsensitive(zr, containerPath)
	if f == nil {
		for _, f := range zr.File {
			if strings.EqualFold(path.Ext(f.Name), ".opf") {
				return f.Name, nil
			}
		}
		return "", fmt.Errorf("novelpub: no container.xml or OPF entry: %w", ErrInvalidEPub)
	}

	data, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("novelpub: read container.xml: %w", err)
	}
	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("novelpub: parse container.xml: %w", err)
	}

	// Prefer the rootfile declared as a package document.
	var first string
	for _, rf := range c.RootFiles {
		p := strings.TrimSpace(rf.FullPath)
		switch {
		case p == "":
		case strings.EqualFold(strings.TrimSpace(rf.MediaType), opfMediaType):
			return p, nil
		case first == "":
			first = p
		}
	}
	if first == "" {
		return "", fmt.Errorf("novelpub: container.xml names no package document: %w", ErrInvalidEPub)
	}
	return first, nil
}
