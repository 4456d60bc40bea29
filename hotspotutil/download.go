/*
Copyright © 2024 the hotspot authors.
This file is part of hotspot.

hotspot is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

hotspot is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with hotspot.  If not, see <http://www.gnu.org/licenses/>.
*/

package hotspotutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"
)

// maxRetries is the number of times a failed HTTP download is retried.
var maxRetries uint64 = 5

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or blob storage location.
// If it is, it downloads the file and
// returns the path to the downloaded file.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path, log)
	}

	if IsBlob(path) {
		return downloadBlob(ctx, path, log)
	}

	return path, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	dir, err := ioutil.TempDir("", "hotspot")
	if err != nil {
		return "", fmt.Errorf("hotspot: creating temporary download directory: %v", err)
	}
	fnames := expandShp(path)
	for _, fname := range fnames {
		err := backoff.RetryNotify(
			func() error { return httpGet(ctx, fname, filepath.Join(dir, filepath.Base(fname))) },
			backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx),
			func(err error, d time.Duration) {
				log.WithField("url", fname).Warnf("%v: retrying in %v", err, d)
			},
		)
		if err != nil {
			// The projection file of a shapefile is optional.
			if filepath.Ext(fname) == ".prj" {
				continue
			}
			return "", fmt.Errorf("hotspot: downloading %s: %v", fname, err)
		}
	}
	log.WithField("url", path).Info("downloaded file")
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

// httpGet copies the contents at url to a file at path.
func httpGet(ctx context.Context, url, path string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket that holds the file at u,
// along with the key of the file within the bucket.
// For "gs" (Google Cloud Storage) and "s3" (AWS S3) locations, the host is
// the bucket name and the path is the key. For "file" locations, the
// directory is the bucket and the file name is the key.
func OpenBucket(ctx context.Context, u *url.URL) (*blob.Bucket, string, error) {
	switch u.Scheme {
	case "file":
		p := filepath.Join(u.Host, filepath.FromSlash(u.Path))
		b, err := fileblob.OpenBucket(filepath.Dir(p), nil)
		return b, filepath.Base(p), err
	case "gs":
		b, err := gsBucket(ctx, u.Hostname())
		return b, strings.TrimPrefix(u.Path, "/"), err
	case "s3":
		b, err := s3Bucket(ctx, u.Hostname())
		return b, strings.TrimPrefix(u.Path, "/"), err
	default:
		return nil, "", fmt.Errorf("hotspot: invalid storage provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, c, name, nil)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name, nil)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("hotspot: parsing blob location: %v", err)
	}
	bucket, key, err := OpenBucket(ctx, u)
	if err != nil {
		return "", fmt.Errorf("hotspot: opening bucket for %s: %v", path, err)
	}
	defer bucket.Close()
	dir, err := ioutil.TempDir("", "hotspot")
	if err != nil {
		return "", fmt.Errorf("hotspot: creating temporary download directory: %v", err)
	}
	keys := expandShp(key)
	for _, k := range keys {
		if err := readBlobFile(ctx, bucket, k, filepath.Join(dir, filepath.Base(k))); err != nil {
			if filepath.Ext(k) == ".prj" {
				continue
			}
			return "", fmt.Errorf("hotspot: downloading %s: %v", path, err)
		}
	}
	log.WithField("blob", path).Info("downloaded file")
	return filepath.Join(dir, filepath.Base(keys[0])), nil
}

// readBlobFile copies the blob at key to a file at path.
func readBlobFile(ctx context.Context, bucket *blob.Bucket, key, path string) error {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise
func expandShp(filename string) []string {
	o := []string{filename}
	ext := filepath.Ext(filename)
	if ext != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
