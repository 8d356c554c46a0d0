package main

// General API documentation for swaggo. The generated document lives in
// internal/apidocs.
//
// @title           xrayd API
// @version         1.0
// @description     Zero-shot CLIP chest X-ray classification service.
//
// @contact.name   xrayd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
