/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apiresponses

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	HeaderContentType  = "Content-Type"
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
	HeaderMaxAge       = "Access-Control-Max-Age"

	ContentTypeJSON = "application/json"

	AllowedOrigin   = "*"
	AllowedMethods  = "POST, OPTIONS"
	AllowedHeaders  = "Content-Type"
	PreflightMaxAge = "86400"
)

// User-facing messages. The site is Russian-language; the API mirrors it.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgMissingFields    = "Заполните все обязательные поля"
	MsgMalformedBody    = "Некорректный формат заявки"
	MsgBodyTooLarge     = "Слишком большая заявка"
	MsgNotConfigured    = "Настройки email не заданы"
	MsgSendFailedPrefix = "Ошибка отправки: "
	MsgSent             = "Заявка успешно отправлена"
)

// Response is the platform-neutral result of one handler invocation. Its JSON
// form matches the API Gateway proxy response shape.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// APIError represents a standardized error response.
type APIError struct {
	Error string `json:"error"`
}

// Success is the body returned once the notification was handed to the relay.
type Success struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Preflight answers a CORS preflight request. The body is always empty.
func Preflight() Response {
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			HeaderAllowOrigin:  AllowedOrigin,
			HeaderAllowMethods: AllowedMethods,
			HeaderAllowHeaders: AllowedHeaders,
			HeaderMaxAge:       PreflightMaxAge,
		},
	}
}

// JSON builds a response carrying v as its JSON body together with the CORS origin header.
func JSON(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unsupported types; never emit a partial body.
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	return Response{
		StatusCode: status,
		Headers: map[string]string{
			HeaderContentType: ContentTypeJSON,
			HeaderAllowOrigin: AllowedOrigin,
		},
		Body: string(body),
	}
}

// Error builds a JSON error response with the given status.
func Error(status int, message string) Response {
	return JSON(status, APIError{Error: message})
}

func MethodNotAllowed() Response {
	return Error(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}

func MissingFields() Response {
	return Error(http.StatusBadRequest, MsgMissingFields)
}

func MalformedBody() Response {
	return Error(http.StatusBadRequest, MsgMalformedBody)
}

func BodyTooLarge() Response {
	return Error(http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
}

func NotConfigured() Response {
	return Error(http.StatusInternalServerError, MsgNotConfigured)
}

// SendFailed embeds the delivery failure detail in the error message.
func SendFailed(detail string) Response {
	return Error(http.StatusInternalServerError, MsgSendFailedPrefix+detail)
}

func Sent() Response {
	return JSON(http.StatusOK, Success{Success: true, Message: MsgSent})
}

// Write copies r onto the gin response verbatim.
func Write(c *gin.Context, r Response) {
	for k, v := range r.Headers {
		c.Header(k, v)
	}
	if r.Body == "" {
		c.Status(r.StatusCode)
		c.Writer.WriteHeaderNow()
		return
	}
	c.Data(r.StatusCode, r.Headers[HeaderContentType], []byte(r.Body))
}
