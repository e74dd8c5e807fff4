package ipsr

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// LoadPoints reads a point cloud from a PLY file.
func LoadPoints(path string) (*PointCloud, error) {
	return loadFile(path, ReadPointsPLY)
}

// LoadMesh reads a polygon soup from a PLY file.
func LoadMesh(path string) (*Mesh, error) {
	return loadFile(path, ReadMeshPLY)
}

// SaveMesh writes a polygon soup to a PLY file.
func SaveMesh(path string, m *Mesh, format PLYFormat) error {
	return saveFile(path, func(w io.Writer) error {
		return WriteMeshPLY(w, m, format)
	})
}

// SavePoints writes a point cloud to a PLY file.
func SavePoints(path string, cloud *PointCloud, format PLYFormat) error {
	return saveFile(path, func(w io.Writer) error {
		return WritePointsPLY(w, cloud, format)
	})
}

func loadFile[T any](path string, f func(io.Reader) (T, error)) (T, error) {
	var zero T
	r, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "load "+path)
	}
	defer r.Close()
	res, err := f(r)
	if err != nil {
		return zero, errors.Wrap(err, "load "+path)
	}
	return res, nil
}

func saveFile(path string, f func(io.Writer) error) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save "+path)
	}
	if err := f(w); err != nil {
		w.Close()
		return errors.Wrap(err, "save "+path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "save "+path)
	}
	return nil
}
