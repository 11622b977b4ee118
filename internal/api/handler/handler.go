package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/service"
	pkgerrors "face-attendance/pkg/errors"
	"face-attendance/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Employee   *EmployeeHandler
	Face       *FaceHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Setting    *SettingHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cookie CookieConfig) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cookie),
		Employee:   NewEmployeeHandler(svc.Employee),
		Face:       NewFaceHandler(svc.Face, svc.Employee),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Report:     NewReportHandler(svc.Report, svc.Export, svc.Notification),
		Setting:    NewSettingHandler(svc.Setting),
	}
}

// respondByKind 未单独映射的业务错误按错误类别兜底
func respondByKind(c *gin.Context, err error) {
	msg := pkgerrors.MessageOf(err)
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindValidation:
		response.BadRequest(c, 10001, msg)
	case pkgerrors.KindNotFound:
		response.NotFound(c, 10006, msg)
	case pkgerrors.KindAuthorization:
		response.Forbidden(c, 10003, msg)
	case pkgerrors.KindConflict:
		response.Conflict(c, 10009, msg)
	default:
		response.Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
	}
}
