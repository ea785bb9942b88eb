package usecase

// 業務イベントのログ出力（gommonのLoggerを渡す）
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
