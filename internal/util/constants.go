package util

const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	AIProviderGemini = "gemini"
	AIProviderOpenAI = "openai"
)

const (
	AuthProviderLocal    = "local"
	AuthProviderSupabase = "supabase"
)

// ContextUserIDKey 认证中间件写入 gin.Context 的用户 ID
const ContextUserIDKey = "userID"

// RecentQuizLimit 进度页展示的最近测验数量
const RecentQuizLimit = 10

// RequestIDKey 请求 ID 在 gin.Context 中的键
const RequestIDKey = "requestID"
