package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-system/pkg/config"
)

type sampleUserDTO struct {
	Name  string      `json:"name" validate:"required"`
	Phone string      `json:"phone" validate:"required,phone"`
	Role  string      `json:"role" validate:"required,user_role"`
	Note  null.String `json:"note" validate:"omitempty,min=3"`
}

type sampleReportDTO struct {
	Status string `json:"status" validate:"required,report_status"`
}

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func TestCustomValidator_Rules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(sampleUserDTO{Name: "Саид", Phone: "+992900112233", Role: "courier"}))
	assert.NoError(t, v.Validate(sampleUserDTO{Name: "Саид", Phone: "992900112233", Role: "bank", Note: null.StringFrom("Позвонить")}))

	err := v.Validate(sampleUserDTO{Name: "Саид", Phone: "12-34", Role: "director", Note: null.StringFrom("ok")})
	assert.ElementsMatch(t, []string{"phone", "role", "note"}, failedFields(t, err))

	assert.NoError(t, v.Validate(sampleReportDTO{Status: "formed"}))
	assert.Equal(t, []string{"status"}, failedFields(t, v.Validate(sampleReportDTO{Status: "archived"})))
}

func fileHeader(size int64, contentType string) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: "f", Size: size, Header: h}
}

func TestValidateFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	mime, err := ValidateFile(fileHeader(int64(len(png)), "image/png"), bytes.NewReader(png), config.UploadContextOrderPhoto)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateFile(fileHeader(6*1024*1024, ""), bytes.NewReader(png), config.UploadContextOrderPhoto)
	assert.Error(t, err)

	text := []byte("обычный текст")
	_, err = ValidateFile(fileHeader(int64(len(text)), ""), bytes.NewReader(text), config.UploadContextOrderPhoto)
	assert.Error(t, err)

	// для вложений тип не ограничен
	mime, err = ValidateFile(fileHeader(int64(len(text)), "text/plain"), bytes.NewReader(text), config.UploadContextOrderFile)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)

	_, err = ValidateFile(fileHeader(1, ""), bytes.NewReader(text), "unknown")
	assert.Error(t, err)
}
