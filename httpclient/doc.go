// Package httpclient is the HTTP collaborator shared by the ImgLa provider,
// the presigned-PUT fallback and the downloader.
//
// A Client sends JSON, multipart and raw bodies, applies bearer auth and a
// per-request timeout, and classifies failures into typed errors. Only
// transport failures where the peer dropped the connection are retried; HTTP
// error responses are returned to the caller untouched.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://imgla.example.com",
//	    Auth:    httpclient.BearerAuth(token),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/api/v1/albums",
//	})
package httpclient
