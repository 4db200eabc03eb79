package controllers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"delivery-system/internal/dto"
	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AttachmentController struct {
	attachmentService services.AttachmentServiceInterface
	logger            *zap.Logger
}

func NewAttachmentController(
	attachmentService services.AttachmentServiceInterface,
	logger *zap.Logger,
) *AttachmentController {
	return &AttachmentController{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// formFiles достаёт файлы поля "files[]" (или "files").
func formFiles(ctx echo.Context, field string) ([]*multipart.FileHeader, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("Ошибка валидации",
			map[string]interface{}{"errors": map[string][]string{field: {"Необходимо выбрать файлы"}}})
	}
	files := form.File[field+"[]"]
	if len(files) == 0 {
		files = form.File[field]
	}
	return files, nil
}

func attachmentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func (c *AttachmentController) streamArchive(ctx echo.Context, name string, write services.ArchiveWriter) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "application/zip")
	res.Header().Set(echo.HeaderContentDisposition, attachmentDisposition(name))
	res.WriteHeader(http.StatusOK)
	if err := write(res); err != nil {
		// заголовки уже отправлены, остаётся только залогировать
		c.logger.Error("Ошибка при формировании архива", zap.String("archive", name), zap.Error(err))
	}
	return nil
}

func (c *AttachmentController) GetFiles(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.attachmentService.GetFiles(ctx.Request().Context(), orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Файлы заказа получены", http.StatusOK)
}

func (c *AttachmentController) FindFile(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	fileID, err := utils.ParseIDParam(ctx, "file")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.attachmentService.FindFile(ctx.Request().Context(), orderID, fileID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Файл найден", http.StatusOK)
}

func (c *AttachmentController) UploadFiles(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	files, err := formFiles(ctx, "files")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.attachmentService.UploadFiles(ctx.Request().Context(), orderID, files)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Файлы успешно загружены", http.StatusCreated)
}

func (c *AttachmentController) DownloadFile(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	fileID, err := utils.ParseIDParam(ctx, "file")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reader, meta, err := c.attachmentService.OpenFile(ctx.Request().Context(), orderID, fileID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer reader.Close()

	return sendDownload(ctx, reader, meta)
}

func sendDownload(ctx echo.Context, reader io.Reader, meta *dto.DownloadDTO) error {
	header := ctx.Response().Header()
	header.Set(echo.HeaderContentDisposition, attachmentDisposition(meta.FileName))
	if meta.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(meta.Size, 10))
	}
	return ctx.Stream(http.StatusOK, meta.ContentType, reader)
}

func (c *AttachmentController) DeleteFile(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	fileID, err := utils.ParseIDParam(ctx, "file")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.attachmentService.DeleteFile(ctx.Request().Context(), orderID, fileID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Файл удалён", http.StatusOK)
}

func (c *AttachmentController) DownloadAllFiles(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	name, write, err := c.attachmentService.DownloadAllFiles(ctx.Request().Context(), orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.streamArchive(ctx, name, write)
}

func (c *AttachmentController) GetPhotos(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.attachmentService.GetPhotos(ctx.Request().Context(), orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Фотографии заказа получены", http.StatusOK)
}

func (c *AttachmentController) UploadPhotos(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	photos, err := formFiles(ctx, "photos")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.attachmentService.UploadPhotos(ctx.Request().Context(), orderID, photos)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Фотографии успешно загружены", http.StatusCreated)
}

func (c *AttachmentController) DeletePhoto(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	photoID, err := utils.ParseIDParam(ctx, "photo")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.attachmentService.DeletePhoto(ctx.Request().Context(), orderID, photoID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Фотография удалена", http.StatusOK)
}

func (c *AttachmentController) DownloadAllPhotos(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	name, write, err := c.attachmentService.DownloadAllPhotos(ctx.Request().Context(), orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.streamArchive(ctx, name, write)
}
