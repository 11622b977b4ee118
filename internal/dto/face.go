package dto

// ── 人脸模块 DTO ──

// RegisterFaceRequest 录入人脸模板
type RegisterFaceRequest struct {
	FaceData []float32 `json:"face_data" binding:"required,min=1,max=4096"`
}

// RecognizeRequest 人脸识别请求
type RecognizeRequest struct {
	FaceData []float32 `json:"face_data" binding:"required,min=1,max=4096"`
}

// RecognizeResponse 人脸识别响应
type RecognizeResponse struct {
	Recognized bool              `json:"recognized"`
	Employee   *EmployeeResponse `json:"employee,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// FaceCheckRequest 识别并打卡请求
type FaceCheckRequest struct {
	FaceData []float32 `json:"face_data" binding:"required,min=1,max=4096"`
	Location string    `json:"location"  binding:"omitempty,max=200"`
	Notes    string    `json:"notes"     binding:"omitempty,max=1000"`
}

// FaceCheckResponse 识别并打卡响应
type FaceCheckResponse struct {
	Recognized bool                      `json:"recognized"`
	Confidence float64                   `json:"confidence,omitempty"`
	Message    string                    `json:"message,omitempty"`
	Record     *AttendanceRecordResponse `json:"record,omitempty"`
}
