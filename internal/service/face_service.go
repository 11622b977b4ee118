package service

import (
	"context"

	"go.uber.org/zap"

	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/recognition"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// ── 人脸识别模块业务错误 ──

var (
	ErrFaceRecognitionDisabled = pkgerrors.New(pkgerrors.KindValidation, "人脸识别已停用")
	ErrInvalidFaceSample       = pkgerrors.New(pkgerrors.KindValidation, "人脸样本不能为空")
)

// 未匹配时返回给终端的提示
var noMatchMessages = map[recognition.NoMatchReason]string{
	recognition.ReasonNoCandidates:   "尚无已录入人脸的在职员工",
	recognition.ReasonNotComparable:  "人脸样本与已录入模板不兼容",
	recognition.ReasonBelowThreshold: "未识别到匹配的员工",
}

// FaceService 人脸识别业务接口
type FaceService interface {
	// Recognize 在在职且已录入模板的员工中查找与样本最接近者
	Recognize(ctx context.Context, sample []float32) (recognition.Result, error)
	// RecognizeResponse 识别并转换为接口响应
	RecognizeResponse(ctx context.Context, req *dto.RecognizeRequest) (*dto.RecognizeResponse, error)
	// RecognizeAndCheck 识别成功后以 FACE 方式打卡
	RecognizeAndCheck(ctx context.Context, req *dto.FaceCheckRequest, callerID string) (*dto.FaceCheckResponse, error)
}

type faceService struct {
	repo       *repository.Repository
	settings   SettingReader
	attendance AttendanceService
	matcher    *recognition.Matcher
	logger     *zap.Logger
}

// NewFaceService 创建 FaceService 实例
func NewFaceService(
	repo *repository.Repository,
	settings SettingReader,
	attendance AttendanceService,
	logger *zap.Logger,
) FaceService {
	return &faceService{
		repo:       repo,
		settings:   settings,
		attendance: attendance,
		matcher:    recognition.NewMatcher(),
		logger:     logger,
	}
}

// ────────────────────── Recognize ──────────────────────

func (s *faceService) Recognize(ctx context.Context, sample []float32) (recognition.Result, error) {
	if !s.settings.Bool(ctx, SettingFaceDetectionEnabled) {
		return nil, ErrFaceRecognitionDisabled
	}
	if !recognition.ValidSample(sample) {
		return nil, ErrInvalidFaceSample
	}

	candidates, err := s.repo.Employee.ListActiveWithTemplate(ctx)
	if err != nil {
		s.logger.Error("查询识别候选员工失败", zap.Error(err))
		return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "人脸识别失败", err)
	}

	threshold := s.settings.Int(ctx, SettingConfidenceThreshold, 0, 100)
	result := s.matcher.Match(sample, candidates, float64(threshold))

	switch r := result.(type) {
	case recognition.Matched:
		s.logger.Info("人脸识别成功",
			zap.String("employee_id", r.Employee.EmployeeID),
			zap.Float64("confidence", r.Confidence),
		)
	case recognition.NoMatch:
		s.logger.Info("人脸识别未匹配",
			zap.String("reason", string(r.Reason)),
			zap.Float64("best_confidence", r.BestConfidence),
			zap.Int("threshold", threshold),
			zap.Int("candidates", len(candidates)),
		)
	}
	return result, nil
}

func (s *faceService) RecognizeResponse(ctx context.Context, req *dto.RecognizeRequest) (*dto.RecognizeResponse, error) {
	result, err := s.Recognize(ctx, req.FaceData)
	if err != nil {
		return nil, err
	}

	switch r := result.(type) {
	case recognition.Matched:
		return &dto.RecognizeResponse{
			Recognized: true,
			Employee:   toEmployeeResponse(r.Employee),
			Confidence: r.Confidence,
		}, nil
	case recognition.NoMatch:
		return &dto.RecognizeResponse{Message: noMatchMessages[r.Reason]}, nil
	}
	return &dto.RecognizeResponse{}, nil
}

// ────────────────────── RecognizeAndCheck ──────────────────────

func (s *faceService) RecognizeAndCheck(ctx context.Context, req *dto.FaceCheckRequest, callerID string) (*dto.FaceCheckResponse, error) {
	result, err := s.Recognize(ctx, req.FaceData)
	if err != nil {
		return nil, err
	}

	matched, ok := result.(recognition.Matched)
	if !ok {
		noMatch := result.(recognition.NoMatch)
		return &dto.FaceCheckResponse{Message: noMatchMessages[noMatch.Reason]}, nil
	}

	confidence := matched.Confidence
	record, err := s.attendance.Check(ctx, &dto.CheckRequest{
		EmployeeID:         matched.Employee.EmployeeID,
		Location:           req.Location,
		VerificationMethod: string(model.VerifyFace),
		Notes:              req.Notes,
		Confidence:         &confidence,
	}, callerID)
	if err != nil {
		return nil, err
	}

	return &dto.FaceCheckResponse{
		Recognized: true,
		Confidence: confidence,
		Record:     record,
	}, nil
}
