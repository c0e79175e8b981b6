package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - Project from project.go
// - Evaluation, EvaluationStatus from evaluation.go

// Database schema overview:
// 1. users - employees, managers and admins; roles stored as a JSON array
// 2. projects - name-unique; user_projects holds membership,
//    manager_projects holds stewardship (one manager per project)
// 3. evaluations - the central entity; competency rating maps stored as JSON
//    columns, period key (employee, project, year, month) unique
// 4. refresh_tokens - cookie-session refresh tokens, hashed at rest
