// Package httpclient is the outbound HTTP client used by recognition
// backends that run as sidecars. It adds a base URL, bearer auth, TLS and
// status classification on top of net/http.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://whisper:9000",
//	    Timeout: 2 * time.Minute,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/transcribe",
//	    Body: &httpclient.MultipartBody{
//	        Fields: map[string]string{"model": "base"},
//	        Files:  []httpclient.FileField{{FieldName: "audio", FileName: "audio.ogg", Data: audio}},
//	    },
//	})
package httpclient
