package routes

import (
	"delivery-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runAttachmentRouter(secureGroup *echo.Group, attachmentCtrl *controllers.AttachmentController) {
	files := secureGroup.Group("/orders/:id/files")
	{
		files.GET("", attachmentCtrl.GetFiles)
		files.POST("", attachmentCtrl.UploadFiles)
		files.GET("/download-all", attachmentCtrl.DownloadAllFiles)
		files.GET("/:file", attachmentCtrl.FindFile)
		files.GET("/:file/download", attachmentCtrl.DownloadFile)
		files.DELETE("/:file", attachmentCtrl.DeleteFile)
	}

	photos := secureGroup.Group("/orders/:id/photos")
	{
		photos.GET("", attachmentCtrl.GetPhotos)
		photos.GET("/download-all", attachmentCtrl.DownloadAllPhotos)
		photos.DELETE("/:photo", attachmentCtrl.DeletePhoto)
	}
}
