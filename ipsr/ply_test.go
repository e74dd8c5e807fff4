package ipsr

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestReadWriteMeshPLY(t *testing.T) {
	// All coordinates are exact in float32.
	mesh := &Mesh{
		Vertices: []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(0, 1, 0),
			model3d.XYZ(0.5, 0.25, -0.125),
		},
		Faces: [][]int{{0, 1, 2}, {0, 2, 3, 1}},
	}
	for _, format := range []PLYFormat{PLYASCII, PLYBinaryLittleEndian, PLYBinaryBigEndian} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteMeshPLY(&buf, mesh, format); err != nil {
				t.Fatal(err)
			}
			actual, err := ReadMeshPLY(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(actual, mesh) {
				t.Fatalf("expected %v but got %v", mesh, actual)
			}
		})
	}
}

func TestWriteMeshPLYHeader(t *testing.T) {
	mesh := &Mesh{
		Vertices: []model3d.Coord3D{model3d.X(1), model3d.Y(1), model3d.Z(1)},
		Faces:    [][]int{{0, 1, 2}},
	}
	var buf bytes.Buffer
	if err := WriteMeshPLY(&buf, mesh, PLYASCII); err != nil {
		t.Fatal(err)
	}
	expected := "ply\nformat ascii 1.0\nelement vertex 3\n" +
		"property float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_index\nend_header\n" +
		"1 0 0\n0 1 0\n0 0 1\n3 0 1 2\n"
	if actual := buf.String(); actual != expected {
		t.Fatalf("unexpected output:\n%s", actual)
	}
}

func TestWriteMeshPLYLargeFace(t *testing.T) {
	face := make([]int, 256)
	mesh := &Mesh{Vertices: []model3d.Coord3D{{}}, Faces: [][]int{face}}
	var buf bytes.Buffer
	if err := WriteMeshPLY(&buf, mesh, PLYASCII); err == nil {
		t.Fatal("expected an error")
	}
}

func TestReadWritePointsPLY(t *testing.T) {
	cloud := &PointCloud{
		Points:  []model3d.Coord3D{model3d.XYZ(1, 2, 3), model3d.XYZ(-0.5, 0.25, 8)},
		Normals: []model3d.Coord3D{model3d.X(1), model3d.XYZ(0, -1, 0)},
	}
	for _, format := range []PLYFormat{PLYASCII, PLYBinaryLittleEndian} {
		var buf bytes.Buffer
		if err := WritePointsPLY(&buf, cloud, format); err != nil {
			t.Fatal(err)
		}
		actual, err := ReadPointsPLY(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(actual, cloud) {
			t.Fatalf("%s: expected %v but got %v", format, cloud, actual)
		}
	}

	noNormals := &PointCloud{Points: cloud.Points}
	var buf bytes.Buffer
	if err := WritePointsPLY(&buf, noNormals, PLYASCII); err != nil {
		t.Fatal(err)
	}
	actual, err := ReadPointsPLY(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if actual.Normals != nil {
		t.Fatal("unexpected normals")
	}
	if !reflect.DeepEqual(actual.Points, cloud.Points) {
		t.Fatalf("expected %v but got %v", cloud.Points, actual.Points)
	}
}

func TestReadPointsPLYExtraProperties(t *testing.T) {
	data := "ply\r\nformat ascii 1.0\r\ncomment made by hand\r\n" +
		"element vertex 2\r\nproperty double z\r\nproperty uchar red\r\n" +
		"property float x\r\nproperty float y\r\n" +
		"element edge 1\r\nproperty int vertex1\r\nproperty int vertex2\r\n" +
		"end_header\r\n" +
		"3 255 1 2\r\n6 0 4 5\r\n0 1\r\n"
	cloud, err := ReadPointsPLY(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	expected := []model3d.Coord3D{model3d.XYZ(1, 2, 3), model3d.XYZ(4, 5, 6)}
	if !reflect.DeepEqual(cloud.Points, expected) {
		t.Fatalf("expected %v but got %v", expected, cloud.Points)
	}
}

func TestReadPointsPLYBinaryTypes(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_big_endian 1.0\nelement vertex 1\n" +
		"property short x\nproperty double y\nproperty char z\n" +
		"element face 1\nproperty list uchar uint vertex_indices\nend_header\n")
	binary.Write(&buf, binary.BigEndian, int16(-7))
	binary.Write(&buf, binary.BigEndian, math.Pi)
	binary.Write(&buf, binary.BigEndian, int8(-2))
	binary.Write(&buf, binary.BigEndian, uint8(3))
	binary.Write(&buf, binary.BigEndian, []uint32{0, 0, 0})

	cloud, err := ReadPointsPLY(&buf)
	if err != nil {
		t.Fatal(err)
	}
	expected := []model3d.Coord3D{model3d.XYZ(-7, math.Pi, -2)}
	if !reflect.DeepEqual(cloud.Points, expected) {
		t.Fatalf("expected %v but got %v", expected, cloud.Points)
	}
}

func TestReadPLYErrors(t *testing.T) {
	cases := map[string]string{
		"magic":     "obj\n",
		"format":    "ply\nformat xml 1.0\nend_header\n",
		"no format": "ply\nelement vertex 0\nend_header\n",
		"type":      "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n",
		"truncated": "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\n" +
			"property float y\nproperty float z\nend_header\n1 2 3\n",
		"missing z": "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\n" +
			"property float y\nend_header\n1 2\n",
		"bad index": "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\n" +
			"property float y\nproperty float z\nelement face 1\n" +
			"property list uchar int vertex_index\nend_header\n0 0 0\n3 0 1 2\n",
		"wide list length": "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\n" +
			"property float y\nproperty float z\nelement face 1\n" +
			"property list uint int vertex_index\nend_header\n0 0 0\n1 0 0\n0 1 0\n" +
			"1e18 0 1 2\n",
		"huge list length": "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\n" +
			"property float y\nproperty float z\nelement face 1\n" +
			"property list uchar int vertex_index\nend_header\n0 0 0\n4000000000 0 1 2\n",
		"negative count": "ply\nformat ascii 1.0\nelement vertex -1\nproperty float x\n" +
			"property float y\nproperty float z\nend_header\n0 0 0\n",
		"no end": "ply\nformat ascii 1.0\nelement vertex 1\n",
	}
	for name, data := range cases {
		if _, err := ReadMeshPLY(strings.NewReader(data)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestReadPLYTruncatedBinaryList(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\nelement vertex 0\n" +
		"property float x\nproperty float y\nproperty float z\nelement face 1\n" +
		"property list ushort int vertex_index\nend_header\n")
	binary.Write(&buf, binary.LittleEndian, uint16(0xffff))
	binary.Write(&buf, binary.LittleEndian, []int32{0, 0})
	if _, err := ReadMeshPLY(&buf); err == nil {
		t.Fatal("expected an error")
	}
}

func TestReadPointsPLYEmptyElements(t *testing.T) {
	data := "ply\nformat ascii 1.0\nobj_info scanned\n" +
		"element face 0\nproperty list uchar int vertex_index\n" +
		"element vertex 1\nproperty float x\nproperty float y\nproperty float z\n" +
		"element edge 0\nproperty int vertex1\nproperty int vertex2\n" +
		"end_header\n1 2 3\n"
	cloud, err := ReadPointsPLY(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	expected := []model3d.Coord3D{model3d.XYZ(1, 2, 3)}
	if !reflect.DeepEqual(cloud.Points, expected) {
		t.Fatalf("expected %v but got %v", expected, cloud.Points)
	}
}

func TestReadWriteMeshPLYNoFaces(t *testing.T) {
	for _, mesh := range []*Mesh{
		{},
		{Vertices: []model3d.Coord3D{model3d.XYZ(1, 2, 3)}},
	} {
		for _, format := range []PLYFormat{PLYASCII, PLYBinaryBigEndian} {
			var buf bytes.Buffer
			if err := WriteMeshPLY(&buf, mesh, format); err != nil {
				t.Fatal(err)
			}
			actual, err := ReadMeshPLY(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if len(actual.Faces) != 0 || !reflect.DeepEqual(actual.Vertices, mesh.Vertices) {
				t.Fatalf("%s: expected %v but got %v", format, mesh, actual)
			}
		}
	}
}
