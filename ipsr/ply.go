package ipsr

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/fileformats"
	"github.com/unixpickle/model3d/model3d"
)

// maxPLYHeaderSize bounds the number of header bytes read before giving up.
const maxPLYHeaderSize = 1 << 16

// PLYFormat is the encoding of the body of a PLY file.
type PLYFormat int

const (
	PLYASCII PLYFormat = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

func (p PLYFormat) String() string {
	switch p {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	}
	return fmt.Sprintf("PLYFormat(%d)", int(p))
}

func (p PLYFormat) fileFormat() fileformats.PLYFormat {
	switch p {
	case PLYBinaryLittleEndian:
		return fileformats.PLYFormatBinaryLittle
	case PLYBinaryBigEndian:
		return fileformats.PLYFormatBinaryBig
	}
	return fileformats.PLYFormatASCII
}

// A PointCloud is a set of points with optional per-point normals.
type PointCloud struct {
	Points []model3d.Coord3D

	// Normals is nil if the source had no normals.
	Normals []model3d.Coord3D
}

// ReadPointsPLY reads the vertex element of a PLY file.
//
// Normals are read if the vertices have nx, ny and nz properties. Every other
// element, such as faces, is skipped.
func ReadPointsPLY(r io.Reader) (*PointCloud, error) {
	res := &PointCloud{}
	err := readPLY(r, func(elem *fileformats.PLYElement, row []fileformats.PLYValue) error {
		if elem.Name != "vertex" {
			return nil
		}
		p, n, hasNormal, err := plyVertex(elem, row)
		if err != nil {
			return err
		}
		res.Points = append(res.Points, p)
		if hasNormal {
			res.Normals = append(res.Normals, n)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read PLY points")
	}
	return res, nil
}

// ReadMeshPLY reads the vertices and faces of a PLY file.
//
// Faces are taken from the first list property of the face element.
func ReadMeshPLY(r io.Reader) (*Mesh, error) {
	res := &Mesh{}
	err := readPLY(r, func(elem *fileformats.PLYElement, row []fileformats.PLYValue) error {
		switch elem.Name {
		case "vertex":
			p, _, _, err := plyVertex(elem, row)
			if err != nil {
				return err
			}
			res.Vertices = append(res.Vertices, p)
		case "face":
			for i, prop := range elem.Properties {
				if prop.LenType == fileformats.PLYPropertyTypeNone {
					continue
				}
				list := row[i].(fileformats.PLYValueList)
				face := make([]int, len(list.Values))
				for j, v := range list.Values {
					x, err := plyNumber(v)
					if err != nil {
						return err
					}
					face[j] = int(x)
				}
				res.Faces = append(res.Faces, face)
				return nil
			}
			return errors.New("face element has no list property")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read PLY mesh")
	}
	for i, f := range res.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(res.Vertices) {
				return nil, errors.Errorf("read PLY mesh: face %d references vertex %d of %d",
					i, idx, len(res.Vertices))
			}
		}
	}
	return res, nil
}

// WriteMeshPLY encodes a polygon soup with 32-bit float coordinates and
// uchar-counted int index lists.
func WriteMeshPLY(w io.Writer, m *Mesh, format PLYFormat) error {
	for i, f := range m.Faces {
		if len(f) > math.MaxUint8 {
			return errors.Errorf("write PLY mesh: face %d has %d vertices", i, len(f))
		}
	}
	header := &fileformats.PLYHeader{
		Format:   format.fileFormat(),
		Elements: []*fileformats.PLYElement{plyVertexElement(len(m.Vertices), false)},
	}
	// The writer only flushes after the final row, so an empty trailing
	// element is never declared.
	if len(m.Faces) > 0 {
		header.Elements = append(header.Elements, fileformats.NewPLYElementFace(int64(len(m.Faces))))
	}
	pw, err := fileformats.NewPLYWriter(w, header)
	if err != nil {
		return errors.Wrap(err, "write PLY mesh")
	}
	for _, v := range m.Vertices {
		if err := pw.Write(plyCoords(v)); err != nil {
			return errors.Wrap(err, "write PLY mesh")
		}
	}
	for _, f := range m.Faces {
		indices := make([]fileformats.PLYValue, len(f))
		for i, idx := range f {
			indices[i] = fileformats.PLYValueInt32{Value: int32(idx)}
		}
		row := []fileformats.PLYValue{fileformats.PLYValueList{
			Length: fileformats.PLYValueUint8{Value: uint8(len(f))},
			Values: indices,
		}}
		if err := pw.Write(row); err != nil {
			return errors.Wrap(err, "write PLY mesh")
		}
	}
	return nil
}

// WritePointsPLY encodes points and, if present, their normals.
func WritePointsPLY(w io.Writer, cloud *PointCloud, format PLYFormat) error {
	hasNormals := cloud.Normals != nil
	if hasNormals && len(cloud.Normals) != len(cloud.Points) {
		return errors.Errorf("write PLY points: %d points but %d normals", len(cloud.Points),
			len(cloud.Normals))
	}
	header := &fileformats.PLYHeader{
		Format:   format.fileFormat(),
		Elements: []*fileformats.PLYElement{plyVertexElement(len(cloud.Points), hasNormals)},
	}
	pw, err := fileformats.NewPLYWriter(w, header)
	if err != nil {
		return errors.Wrap(err, "write PLY points")
	}
	for i, p := range cloud.Points {
		row := plyCoords(p)
		if hasNormals {
			row = append(row, plyCoords(cloud.Normals[i])...)
		}
		if err := pw.Write(row); err != nil {
			return errors.Wrap(err, "write PLY points")
		}
	}
	return nil
}

func plyVertexElement(count int, normals bool) *fileformats.PLYElement {
	names := []string{"x", "y", "z"}
	if normals {
		names = append(names, "nx", "ny", "nz")
	}
	elem := &fileformats.PLYElement{Name: "vertex", Count: int64(count)}
	for _, name := range names {
		elem.Properties = append(elem.Properties, &fileformats.PLYProperty{
			Name:     name,
			ElemType: fileformats.PLYPropertyTypeFloat,
		})
	}
	return elem
}

func plyCoords(c model3d.Coord3D) []fileformats.PLYValue {
	return []fileformats.PLYValue{
		fileformats.PLYValueFloat32{Value: float32(c.X)},
		fileformats.PLYValueFloat32{Value: float32(c.Y)},
		fileformats.PLYValueFloat32{Value: float32(c.Z)},
	}
}

func plyVertex(elem *fileformats.PLYElement, row []fileformats.PLYValue) (point,
	normal model3d.Coord3D, hasNormal bool, err error) {
	var coords [6]float64
	for i, name := range []string{"x", "y", "z", "nx", "ny", "nz"} {
		idx := -1
		for j, prop := range elem.Properties {
			if prop.Name == name && prop.LenType == fileformats.PLYPropertyTypeNone {
				idx = j
				break
			}
		}
		if idx == -1 {
			if i < 3 {
				return point, normal, false, errors.Errorf("vertex element has no %s property", name)
			}
			return model3d.XYZ(coords[0], coords[1], coords[2]), normal, false, nil
		}
		if coords[i], err = plyNumber(row[idx]); err != nil {
			return point, normal, false, err
		}
	}
	return model3d.XYZ(coords[0], coords[1], coords[2]),
		model3d.XYZ(coords[3], coords[4], coords[5]), true, nil
}

func plyNumber(v fileformats.PLYValue) (float64, error) {
	switch v := v.(type) {
	case fileformats.PLYValueInt8:
		return float64(v.Value), nil
	case fileformats.PLYValueUint8:
		return float64(v.Value), nil
	case fileformats.PLYValueInt16:
		return float64(v.Value), nil
	case fileformats.PLYValueUint16:
		return float64(v.Value), nil
	case fileformats.PLYValueInt32:
		return float64(v.Value), nil
	case fileformats.PLYValueUint32:
		return float64(v.Value), nil
	case fileformats.PLYValueInt64:
		return float64(v.Value), nil
	case fileformats.PLYValueUint64:
		return float64(v.Value), nil
	case fileformats.PLYValueFloat32:
		return float64(v.Value), nil
	case fileformats.PLYValueFloat64:
		return v.Value, nil
	}
	return 0, errors.Errorf("unexpected PLY value %T", v)
}

// readPLY calls f for every row of every element.
func readPLY(r io.Reader, f func(elem *fileformats.PLYElement, row []fileformats.PLYValue) error) error {
	br := bufio.NewReader(r)
	header, err := readPLYHeader(br)
	if err != nil {
		return err
	}
	reader, err := fileformats.NewPLYReader(io.MultiReader(strings.NewReader(header.Encode()), br))
	if err != nil {
		return err
	}
	for {
		row, elem, err := reader.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := f(elem, row); err != nil {
			return errors.Wrapf(err, "read %s", elem.Name)
		}
	}
}

// readPLYHeader consumes and validates a header, returning it in a form
// which fileformats.PLYReader decodes safely.
//
// CR line endings and obj_info lines are dropped, and elements with no rows
// are removed since the reader would otherwise assign them a row. List
// lengths wider than 16 bits are rejected so that a corrupt count cannot
// trigger a huge allocation.
func readPLYHeader(r *bufio.Reader) (*fileformats.PLYHeader, error) {
	var data strings.Builder
	var size int
	for first := true; ; first = false {
		line, err := r.ReadString('\n')
		size += len(line)
		if size > maxPLYHeaderSize {
			return nil, errors.New("read PLY header: header too long")
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "read PLY header")
		}
		line = strings.TrimRight(line, "\r\n")
		if first && line != "ply" {
			return nil, errors.New("read PLY header: missing magic")
		}
		if strings.HasPrefix(line, "obj_info") {
			continue
		}
		if strings.TrimSpace(line) == "end_header" {
			data.WriteString("end_header\n")
			break
		}
		data.WriteString(line + "\n")
	}

	header, err := fileformats.NewPLYHeaderDecode(data.String())
	if err != nil {
		return nil, err
	}
	var elements []*fileformats.PLYElement
	for _, elem := range header.Elements {
		if elem.Count < 0 {
			return nil, errors.Errorf("read PLY header: element %s has negative count", elem.Name)
		}
		for _, prop := range elem.Properties {
			if prop.LenType != fileformats.PLYPropertyTypeNone && prop.LenType.Size() > 2 {
				return nil, errors.Errorf("read PLY header: unsupported list length type %s",
					prop.LenType)
			}
		}
		if elem.Count > 0 {
			elements = append(elements, elem)
		}
	}
	header.Elements = elements
	return header, nil
}
