// Package docs provides Swagger documentation for the API.
package docs

// @title ShutterPilot Backend API
// @version 1.0
// @description Edit and synchronization service for ShutterPilot shutter automation profiles and area schedules

// @contact.name API Support

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
