package metadata

import "fo-go/internal/fo"

// defaultCategories maps lowercase extensions (without the dot) onto categories.
// Anything not listed is fo.CategoryOther.
var defaultCategories = map[string]fo.Category{
	"jpg":  fo.CategoryImage,
	"jpeg": fo.CategoryImage,
	"png":  fo.CategoryImage,
	"gif":  fo.CategoryImage,
	"bmp":  fo.CategoryImage,
	"tif":  fo.CategoryImage,
	"tiff": fo.CategoryImage,
	"webp": fo.CategoryImage,
	"heic": fo.CategoryImage,
	"heif": fo.CategoryImage,
	"svg":  fo.CategoryImage,
	"raw":  fo.CategoryImage,
	"cr2":  fo.CategoryImage,
	"nef":  fo.CategoryImage,
	"arw":  fo.CategoryImage,
	"dng":  fo.CategoryImage,

	"mp4":  fo.CategoryVideo,
	"mov":  fo.CategoryVideo,
	"avi":  fo.CategoryVideo,
	"mkv":  fo.CategoryVideo,
	"wmv":  fo.CategoryVideo,
	"flv":  fo.CategoryVideo,
	"webm": fo.CategoryVideo,
	"m4v":  fo.CategoryVideo,
	"mpg":  fo.CategoryVideo,
	"mpeg": fo.CategoryVideo,
	"3gp":  fo.CategoryVideo,

	"pdf":  fo.CategoryDocument,
	"doc":  fo.CategoryDocument,
	"docx": fo.CategoryDocument,
	"xls":  fo.CategoryDocument,
	"xlsx": fo.CategoryDocument,
	"ppt":  fo.CategoryDocument,
	"pptx": fo.CategoryDocument,
	"odt":  fo.CategoryDocument,
	"ods":  fo.CategoryDocument,
	"odp":  fo.CategoryDocument,
	"txt":  fo.CategoryDocument,
	"rtf":  fo.CategoryDocument,
	"md":   fo.CategoryDocument,
	"csv":  fo.CategoryDocument,
	"epub": fo.CategoryDocument,
}

// ParseCategory validates a category name from configuration.
func ParseCategory(name string) (fo.Category, bool) {
	switch c := fo.Category(name); c {
	case fo.CategoryImage, fo.CategoryVideo, fo.CategoryDocument, fo.CategoryOther:
		return c, true
	}
	return "", false
}
