// Package logger provides structured logging for voicenote built on zerolog.
//
// Loggers are scoped per component and take fields as plain maps so call
// sites stay free of zerolog types:
//
//	log := logger.GetGlobalLogger().WithComponent("scheduler")
//	log.Info("job admitted", map[string]interface{}{logger.FieldJobID: id})
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
