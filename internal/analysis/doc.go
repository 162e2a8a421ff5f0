// Package analysis содержит rule-based анализ: категории бюджета,
// распределение сбережений и оценку погашения долгов.
// Все функции чистые и безопасны для конкурентного вызова.
package analysis
