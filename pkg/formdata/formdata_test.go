package formdata

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "----WebKitFormBoundaryX3y7"

// buildPart 构造一个multipart文本part
func buildPart(name, value string) []byte {
	var buf bytes.Buffer
	buf.WriteString("--" + testBoundary + "\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="` + name + `"` + "\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(value + "\r\n")
	return buf.Bytes()
}

// buildImagePart 构造带Content-Type的二进制part
func buildImagePart(name, mime string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("--" + testBoundary + "\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="` + name + `"; filename="foto.jpg"` + "\r\n")
	buf.WriteString("Content-Type: " + mime + "\r\n")
	buf.WriteString("\r\n")
	buf.Write(data)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func buildBody(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	buf.WriteString("--" + testBoundary + "--\r\n")
	return buf.Bytes()
}

func contentType() string {
	return "multipart/form-data; boundary=" + testBoundary
}

func TestDecodeTextFields(t *testing.T) {
	body := buildBody(
		buildPart("titulo", "Bache en la calle"),
		buildPart("descripcion", "  con espacios  "),
		buildPart("ubicacion", "San Salvador"),
		buildPart("categoria", "infraestructura"),
	)

	form := Decode(body, contentType())

	assert.Equal(t, "Bache en la calle", form.Get("titulo"))
	// 文本字段两端空白被裁剪
	assert.Equal(t, "con espacios", form.Get("descripcion"))
	assert.Equal(t, "San Salvador", form.Get("ubicacion"))
	assert.Equal(t, "infraestructura", form.Get("categoria"))
	assert.False(t, form.HasImage())
}

func TestDecodeImageBinaryIntegrity(t *testing.T) {
	// 0-255全字节范围，包括\r\n等控制字节
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	body := buildBody(
		buildPart("titulo", "con foto"),
		buildImagePart("image", "image/jpeg", data),
	)

	form := Decode(body, contentType())

	require.True(t, form.HasImage())
	assert.Equal(t, data, form.Image.Data)
	assert.Equal(t, len(data), len(form.Image.Data))
	assert.Equal(t, "image/jpeg", form.Image.MIME)
	assert.Regexp(t, regexp.MustCompile(`^reporte-\d+-\d{9}\.jpg$`), form.Image.Filename)
}

func TestDecodeMissingBoundary(t *testing.T) {
	form := Decode([]byte("whatever"), "multipart/form-data")
	assert.Empty(t, form.Fields)
	assert.False(t, form.HasImage())
}

func TestDecodePartWithoutNameSkipped(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("--" + testBoundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data\r\n")
	buf.WriteString("\r\n")
	buf.WriteString("huerfano\r\n")
	body := buildBody(buf.Bytes(), buildPart("titulo", "ok"))

	form := Decode(body, contentType())

	assert.Len(t, form.Fields, 1)
	assert.Equal(t, "ok", form.Get("titulo"))
}

func TestDecodePartWithoutSeparatorSkipped(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("--" + testBoundary + "\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="roto"`)
	// 没有空行分隔符
	body := buildBody(buf.Bytes(), buildPart("titulo", "ok"))

	form := Decode(body, contentType())

	assert.Empty(t, form.Get("roto"))
	assert.Equal(t, "ok", form.Get("titulo"))
}

func TestDecodeDuplicateFieldLastWins(t *testing.T) {
	body := buildBody(
		buildPart("titulo", "primero"),
		buildPart("titulo", "segundo"),
	)

	form := Decode(body, contentType())

	assert.Equal(t, "segundo", form.Get("titulo"))
}

func TestDecodeImageWithoutContentTypeIsText(t *testing.T) {
	// 只有带Content-Type头的image字段才按二进制处理
	body := buildBody(buildPart("image", "no-soy-binario"))

	form := Decode(body, contentType())

	assert.False(t, form.HasImage())
	assert.Equal(t, "no-soy-binario", form.Get("image"))
}

func TestDecodeNeverPanicsOnGarbage(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("--" + testBoundary),
		[]byte("\r\n\r\n\r\n"),
		bytes.Repeat([]byte{0xFF}, 64),
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() {
			Decode(input, contentType())
		})
	}
}
