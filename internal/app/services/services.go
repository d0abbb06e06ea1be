// Package services holds the business logic between the HTTP controllers and the repositories.
//
//   - AuthService: registration, login and refresh token rotation
//   - UserService: the signed-in user's profile and trial status
//   - ExplanationService: the credit-gated AI explanation workflow
//   - AdminService: account management and dashboard stats
//   - CurriculumService: study years, subjects, reference books and lessons
package services
