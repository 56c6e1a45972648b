package exports

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"

	"useradmin/models"
)

// renderUserDirectoryPDF produces a printable directory of the filtered
// result set. Each entry carries a QR code pointing at the user's detail
// page so a printed sheet still links back into the console.
func renderUserDirectoryPDF(users []models.User, publicBaseURL string, printedAt time.Time) ([]byte, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to render")
	}
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("User Directory", false)
	pdf.SetAutoPageBreak(false, 0)

	pageW, pageH := 210.0, 297.0
	margin := 14.0
	entryH := 34.0
	headerH := 20.0

	y := pageH
	for i, u := range users {
		if y+entryH > pageH-margin {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 16)
			pdf.SetXY(margin, margin)
			pdf.CellFormat(0, 8, "User Directory", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetX(margin)
			pdf.CellFormat(0, 5, "Printed: "+printedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
			y = margin + headerH
		}

		qrPNG, err := renderQRPNG(publicBaseURL+"/console/users/"+u.UserUID, 360)
		if err != nil {
			return nil, err
		}

		pdf.SetLineWidth(0.2)
		pdf.Line(margin, y, pageW-margin, y)

		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetXY(margin, y+3)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s %s", u.FirstName, u.LastName), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetX(margin)
		pdf.CellFormat(0, 5, "@"+u.Username+"   "+u.Mail, "", 1, "L", false, 0, "")

		orgs := make([]string, 0)
		for _, m := range u.ActiveMemberships() {
			orgs = append(orgs, m.OrgName)
		}
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetX(margin)
		pdf.CellFormat(0, 5, strings.Join(orgs, ", "), "", 1, "L", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("user-qr-%d", i)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(qrPNG))
		qrSize := entryH - 8
		pdf.ImageOptions(imageName, pageW-margin-qrSize, y+4, qrSize, qrSize, false, opt, 0, "")

		y += entryH
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderQRPNG(value string, size int) ([]byte, error) {
	code, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var buf bytes.Buffer
	if err := png.Encode(&buf, normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
