// @title           joe-writer API
// @version         1.0
// @description     Template-driven text generation backed by a hosted language model.
// @BasePath        /api
package api
