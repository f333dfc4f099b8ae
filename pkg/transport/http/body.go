package httptransport

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

// File is a multipart upload sent under the form field "file".
type File struct {
	Name    string
	Content []byte
	// ContentType overrides the type guessed from Name.
	ContentType string
}

// FileFromPath reads path into a File named after its base name.
func FileFromPath(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{Name: filepath.Base(path), Content: content}, nil
}

// Types the platform tables do not know.
var uploadTypeOverrides = map[string]string{
	".ipa": "application/octet-stream",
	".pem": "application/x-pem-file",
}

func guessContentType(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if contentType, ok := uploadTypeOverrides[ext]; ok {
		return contentType, nil
	}
	if ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType, nil
		}
	}
	return "", jerrors.Newf(jerrors.CodeInvalidParameterOptions, "cannot determine content type of %q", name)
}

func encodeBody(dataType DataType, body any, file *File) ([]byte, string, error) {
	if file != nil {
		if !contract.IsEmpty(body) {
			return nil, "", jerrors.New(jerrors.CodeParametersAndData, "a file upload cannot carry a body")
		}
		return encodeMultipart(file)
	}

	if contract.IsEmpty(body) {
		return nil, "", nil
	}

	switch dataType {
	case DataTypeJSON:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", jerrors.Wrap(jerrors.CodeInvalidParameterOptions, "failed to encode json body", err)
		}
		return payload, "application/json", nil
	case DataTypeXML:
		switch v := body.(type) {
		case string:
			return []byte(v), "application/xml", nil
		case []byte:
			return v, "application/xml", nil
		}
		payload, err := xml.Marshal(body)
		if err != nil {
			return nil, "", jerrors.Wrap(jerrors.CodeInvalidParameterOptions, "failed to encode xml body", err)
		}
		return payload, "application/xml", nil
	}
	return nil, "", jerrors.Newf(jerrors.CodeInvalidDataType, "data type %q cannot carry a body", string(dataType))
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(file *File) ([]byte, string, error) {
	if file.Name == "" {
		return nil, "", jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): file name")
	}

	contentType := file.ContentType
	if contentType == "" {
		guessed, err := guessContentType(file.Name)
		if err != nil {
			return nil, "", err
		}
		contentType = guessed
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
