package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSamples(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	written, err := WriteSamples(dir, false)
	require.NoError(t, err)
	require.NotEmpty(t, written)
	return dir
}

func TestWriteSamples_KeepsExisting(t *testing.T) {
	dir := setupSamples(t)
	path := filepath.Join(dir, "exam", ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte("app: custom\nmodel: m.yaml\n"), fileMode))

	written, err := WriteSamples(dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "custom")

	written, err = WriteSamples(dir, true)
	require.NoError(t, err)
	assert.NotEmpty(t, written)
}

func TestWriteSamples_EmptyDir(t *testing.T) {
	_, err := WriteSamples("", false)
	assert.Error(t, err)
}

func TestLoadBundle_Insurance(t *testing.T) {
	dir := setupSamples(t)

	b, err := LoadBundle(filepath.Join(dir, "insurance"))
	require.NoError(t, err)
	assert.Equal(t, "insurance", b.App)
	require.NotNil(t, b.Model)
	require.NotNil(t, b.Scaler)
	assert.Len(t, b.Encoders, 3)
	assert.Len(t, b.Files, 5)
	assert.Len(t, b.Digest, 16)

	enc := b.Encoder("gender")
	require.NotNil(t, enc)
	assert.Equal(t, []string{"female", "male"}, enc.Classes())
	assert.Equal(t, []string{"0", "1"}, b.Encoder("smoker").Classes())
	assert.Nil(t, b.Encoder("missing"))

	assert.Equal(t, []string{"age", "bmi", "bloodpressure", "children"}, b.Scaler.Columns())
	assert.Equal(t, []string{"age", "gender", "bmi", "bloodpressure", "diabetic", "children", "smoker"}, b.Model.Features())
}

func TestLoadBundle_Exam(t *testing.T) {
	dir := setupSamples(t)

	b, err := LoadBundle(filepath.Join(dir, "exam"))
	require.NoError(t, err)
	assert.Equal(t, "exam", b.App)
	assert.Nil(t, b.Scaler)
	assert.Empty(t, b.Encoders)
	assert.Len(t, b.Files, 1)
}

func TestLoadBundle_DigestStable(t *testing.T) {
	dir := setupSamples(t)
	b1, err := LoadBundle(filepath.Join(dir, "insurance"))
	require.NoError(t, err)
	b2, err := LoadBundle(filepath.Join(dir, "insurance"))
	require.NoError(t, err)
	assert.Equal(t, b1.Digest, b2.Digest)

	path := filepath.Join(dir, "insurance", "best_model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: linear\nfeatures: [age, gender, bmi, bloodpressure, diabetic, children, smoker]\nintercept: 1\ncoefficients: [1, 1, 1, 1, 1, 1, 1]\n"), fileMode))
	b3, err := LoadBundle(filepath.Join(dir, "insurance"))
	require.NoError(t, err)
	assert.NotEqual(t, b1.Digest, b3.Digest)
}

func TestLoadBundle_Compressed(t *testing.T) {
	compressors := map[string]func(t *testing.T, b []byte) []byte{
		".zst": func(t *testing.T, b []byte) []byte {
			w, err := zstd.NewWriter(nil)
			require.NoError(t, err)
			defer w.Close()
			return w.EncodeAll(b, nil)
		},
		".gz": func(t *testing.T, b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, err := w.Write(b)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		".lz4": func(t *testing.T, b []byte) []byte {
			var buf bytes.Buffer
			w := lz4.NewWriter(&buf)
			_, err := w.Write(b)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
	}

	for ext, compress := range compressors {
		t.Run(ext, func(t *testing.T) {
			dir := setupSamples(t)
			appDir := filepath.Join(dir, "exam")

			plain, err := LoadBundle(appDir)
			require.NoError(t, err)

			src := filepath.Join(appDir, "best_model.yaml")
			raw, err := os.ReadFile(src)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(src+ext, compress(t, raw), fileMode))
			require.NoError(t, os.Remove(src))
			require.NoError(t, os.WriteFile(filepath.Join(appDir, ManifestFileName),
				[]byte("app: exam\nmodel: best_model.yaml"+ext+"\n"), fileMode))

			b, err := LoadBundle(appDir)
			require.NoError(t, err)
			assert.Equal(t, plain.Files[0].Digest, b.Files[0].Digest)
		})
	}
}

func TestLoadBundle_Errors(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		match string
	}{
		{"unquoted numeric classes", "label_encoder_smoker.yaml", "name: smoker\nclasses: [0, 1]\n", "invalid encoder document"},
		{"duplicate classes", "label_encoder_gender.yaml", "name: gender\nclasses: [male, male]\n", "invalid encoder document"},
		{"encoder name mismatch", "label_encoder_gender.yaml", "name: sex\nclasses: [female, male]\n", "does not match"},
		{"unknown scaler", "scaler.yaml", "kind: robust\ncolumns: [age]\n", "invalid scaler document"},
		{"scaler shape", "scaler.yaml", "kind: standard\ncolumns: [age, bmi]\nmean: [1]\nscale: [1]\n", "shape mismatch"},
		{"model shape", "best_model.yaml", "kind: linear\nfeatures: [age]\ncoefficients: [1, 2]\n", "shape mismatch"},
		{"malformed yaml", "best_model.yaml", "kind: [linear\n", "parsing model document"},
		{"empty document", "best_model.yaml", "", "empty model document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupSamples(t)
			appDir := filepath.Join(dir, "insurance")
			require.NoError(t, os.WriteFile(filepath.Join(appDir, tt.file), []byte(tt.body), fileMode))

			_, err := LoadBundle(appDir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrArtifact)
			assert.Contains(t, err.Error(), tt.match)
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestLoadBundle_MissingFiles(t *testing.T) {
	_, err := LoadBundle("")
	assert.ErrorIs(t, err, ErrArtifact)

	_, err = LoadBundle(t.TempDir())
	assert.ErrorIs(t, err, ErrArtifact)

	dir := setupSamples(t)
	appDir := filepath.Join(dir, "insurance")
	require.NoError(t, os.Remove(filepath.Join(appDir, "scaler.yaml")))
	_, err = LoadBundle(appDir)
	assert.ErrorIs(t, err, ErrArtifact)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBundle_NonLocalPath(t *testing.T) {
	dir := setupSamples(t)
	appDir := filepath.Join(dir, "exam")

	require.NoError(t, os.Rename(filepath.Join(appDir, "best_model.yaml"), filepath.Join(dir, "outside.yaml")))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, ManifestFileName), []byte("app: exam\nmodel: ../outside.yaml\n"), fileMode))

	_, err := LoadBundle(appDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifact)
	assert.Contains(t, err.Error(), "not local")
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.pkl")
	require.NoError(t, os.WriteFile(path, []byte{0x80, 0x04}, fileMode))
	_, err := readFile(path)
	assert.Error(t, err)
}

func TestReadManifest_ExtraField(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("app: x\nmodel: m.yaml\nextra: 1\n"), fileMode))
	_, err := ReadManifest(dir)
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestManifest_Paths(t *testing.T) {
	m := &Manifest{
		App:      "insurance",
		Model:    "best_model.yaml",
		Scaler:   "scaler.yaml",
		Encoders: map[string]string{"smoker": "s.yaml", "gender": "g.yaml"},
	}
	paths, err := m.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"best_model.yaml", "scaler.yaml", "g.yaml", "s.yaml"}, paths)

	m.Encoders["gender"] = "../outside.yaml"
	_, err = m.Paths()
	assert.ErrorIs(t, err, ErrArtifact)
}
