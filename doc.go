/*
Package endorser builds endorsed PDF documents for a batch of subjects.

For every subject, the endorsement stamp is placed at the top right of each page of the subject's layout
document, the pages are normalised to A4 landscape and the subject's photographs are appended, one per page,
scaled to fit and centred.

endorser can be used from the command line and supports the following commands:

  - authorise, to authorise access to the manifest spreadsheet and the subjects' Google Drive folders
  - get, to download a Google Sheets manifest as a TSV file
  - folders, to create a working folder for every subject in a manifest
  - download, to download the photographs and layout document for every subject in a manifest
  - endorse, to create the endorsed documents for a batch of subject folders
  - report, to display the report of an earlier endorse run
*/
package endorser
