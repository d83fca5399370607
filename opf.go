package novelpub

import (
	"encoding/xml"
	"fmt"
)

// XML namespaces used in the package document.
const (
	opfNamespace = "http://www.idpf.org/2007/opf"
	dcNamespace  = "http://purl.org/dc/elements/1.1/"
)

// opfDocument is the <package> element as written. Dublin Core elements use
// literal "dc:" names because encoding/xml cannot emit namespace prefixes.
type opfDocument struct {
	XMLName          xml.Name       `xml:"package"`
	Xmlns            string         `xml:"xmlns,attr"`
	Version          string         `xml:"version,attr"`
	UniqueIdentifier string         `xml:"unique-identifier,attr"`
	Metadata         opfMetadataOut `xml:"metadata"`
	Manifest         opfManifest    `xml:"manifest"`
	Spine            opfSpine       `xml:"spine"`
}

type opfMetadataOut struct {
	XmlnsDC      string     `xml:"xmlns:dc,attr"`
	Identifiers  []opfDCOut `xml:"dc:identifier"`
	Titles       []opfDCOut `xml:"dc:title"`
	Creators     []opfDCOut `xml:"dc:creator"`
	Languages    []opfDCOut `xml:"dc:language"`
	Descriptions []opfDCOut `xml:"dc:description"`
	Sources      []opfDCOut `xml:"dc:source"`
	Metas        []opfMeta  `xml:"meta"`
}

type opfDCOut struct {
	ID    string `xml:"id,attr,omitempty"`
	Value string `xml:",chardata"`
}

// opfPackage is the <package> element as read back by Inspect.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
}

// opfMetadata holds the metadata elements Inspect reports on.
type opfMetadata struct {
	Titles      []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Metas       []opfMeta      `xml:"meta"`
}

// opfDCElement holds a Dublin Core element and its id.
type opfDCElement struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta is a <meta> element in either form:
// ePub 2: <meta name="..." content="..."/>
// ePub 3: <meta property="..." refines="..." scheme="...">value</meta>
type opfMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Refines  string `xml:"refines,attr,omitempty"`
	Scheme   string `xml:"scheme,attr,omitempty"`
	Value    string `xml:",chardata"`
}

// opfManifest wraps the <manifest> element.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents a single <item> in the manifest.
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

// opfSpine wraps the <spine> element.
type opfSpine struct {
	Toc      string            `xml:"toc,attr,omitempty"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

// opfSpineItemRef represents a single <itemref> in the spine.
type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr,omitempty"`
}

// marshalOPF encodes doc with the XML declaration.
func marshalOPF(doc *opfDocument) ([]byte, error) {
	doc.Xmlns = opfNamespace
	doc.Metadata.XmlnsDC = dcNamespace
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("novelpub: encode OPF: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// parseOPF parses the OPF file content and returns the parsed package structure.
func parseOPF(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(stripBOM(data), &pkg); err != nil {
		return nil, fmt.Errorf("novelpub: parse OPF: %w", err)
	}
	if pkg.Version == "" {
		// Default to 2.0 if version attribute is missing.
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

// manifestByID indexes manifest items by id.
func manifestByID(m opfManifest) map[string]opfManifestItem {
	byID := make(map[string]opfManifestItem, len(m.Items))
	for _, item := range m.Items {
		byID[item.ID] = item
	}
	return byID
}
