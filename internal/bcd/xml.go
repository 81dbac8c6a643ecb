package bcd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// xmlWorld is the export layout of a decoded world.
type xmlWorld struct {
	XMLName xml.Name    `xml:"world"`
	Objects []xmlObject `xml:"object"`
}

type xmlObject struct {
	Name     string   `xml:"name,attr"`
	Kind     string   `xml:"type,attr"`
	Category string   `xml:"category,attr"`
	Collide  string   `xml:"collide,attr"`
	Material string   `xml:"material,attr,omitempty"`
	Location xmlVec   `xml:"location"`
	Rotation string   `xml:"rotation"`
	Scale    string   `xml:"scale"`
	Params   *xmlAttr `xml:"params,omitempty"`
	Mesh     *xmlMesh `xml:"mesh,omitempty"`
}

type xmlVec struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
	Z string `xml:"z,attr"`
}

type xmlAttr struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type xmlMesh struct {
	Vertices xmlVertexList `xml:"vertexlist"`
	Faces    xmlFaceList   `xml:"facelist"`
}

type xmlVertexList struct {
	Size  int      `xml:"size,attr"`
	Verts []xmlVec `xml:"vert"`
}

type xmlFaceList struct {
	Size  int       `xml:"size,attr"`
	Faces []xmlFace `xml:"face"`
}

type xmlFace struct {
	A int32 `xml:"a,attr"`
	B int32 `xml:"b,attr"`
	C int32 `xml:"c,attr"`
}

// flt formats with exactly four decimals, as the game's own XML files do.
func flt(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func vec(x, y, z float64) xmlVec {
	return xmlVec{X: flt(x), Y: flt(y), Z: flt(z)}
}

func paramAttrs(p Params) *xmlAttr {
	attr := func(name string, v float64) xml.Attr {
		return xml.Attr{Name: xml.Name{Local: name}, Value: flt(v)}
	}
	switch p := p.(type) {
	case BoxParams:
		return &xmlAttr{Attrs: []xml.Attr{attr("length", p.Length), attr("width", p.Width), attr("depth", p.Depth)}}
	case RayParams:
		return &xmlAttr{Attrs: []xml.Attr{attr("origin", p.Origin), attr("direction", p.Direction), attr("length", p.Length)}}
	case SphereParams:
		return &xmlAttr{Attrs: []xml.Attr{attr("radius", p.Radius)}}
	case CylinderParams:
		return &xmlAttr{Attrs: []xml.Attr{attr("radius", p.Radius), attr("length", p.Length)}}
	case TubeParams:
		return &xmlAttr{Attrs: []xml.Attr{attr("radius", p.Radius), attr("length", p.Length)}}
	case PlaneParams:
		return &xmlAttr{Attrs: []xml.Attr{
			attr("nx", p.Normal[0]), attr("ny", p.Normal[1]), attr("nz", p.Normal[2]),
			attr("distance", p.Distance),
		}}
	case MeshParams, nil:
		return nil
	}
	return nil
}

// WriteXML exports the world as indented XML with a declaration line.
func (w *World) WriteXML(out io.Writer) error {
	doc := xmlWorld{Objects: make([]xmlObject, 0, len(w.Objects))}
	for i := range w.Objects {
		o := &w.Objects[i]
		rot := make([]string, len(o.Rotation))
		for k, v := range o.Rotation {
			rot[k] = flt(v)
		}
		xo := xmlObject{
			Name:     o.Name,
			Kind:     o.Kind.String(),
			Category: o.Category.PrimaryName(),
			Collide:  o.Collide.PrimaryName(),
			Material: o.Material,
			Location: vec(o.Location[0], o.Location[1], o.Location[2]),
			Rotation: strings.Join(rot, " "),
			Scale:    flt(o.Scale),
			Params:   paramAttrs(o.Params),
		}
		if o.Mesh != nil {
			m := &xmlMesh{
				Vertices: xmlVertexList{Size: len(o.Mesh.Vertices)},
				Faces:    xmlFaceList{Size: len(o.Mesh.Faces)},
			}
			for _, v := range o.Mesh.Vertices {
				m.Vertices.Verts = append(m.Vertices.Verts, vec(v[0], v[1], v[2]))
			}
			for _, f := range o.Mesh.Faces {
				m.Faces.Faces = append(m.Faces.Faces, xmlFace{A: f[0], B: f[1], C: f[2]})
			}
			xo.Mesh = m
		}
		doc.Objects = append(doc.Objects, xo)
	}

	if _, err := io.WriteString(out, "<?xml version=\"1.0\" encoding=\"utf-8\" ?>\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("bcd: encode xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

// SaveXML writes the XML export to path, creating parent directories.
func (w *World) SaveXML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("bcd: save xml: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bcd: save xml: %w", err)
	}
	if err := w.WriteXML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
